package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Market data
	Market MarketConfig

	// Price history acquisition
	History HistoryConfig

	// Backtest
	Backtest BacktestConfig

	// Snapshot cache
	SnapshotTTL time.Duration

	// Redis (optional snapshot cache layer)
	Redis RedisConfig

	// Scheduler
	RefreshSchedule string

	// Optional curated event calendar (JSON). Empty uses the built-in
	// heuristic schedule.
	EventsFile string

	// Logging
	LogLevel  string
	LogFormat string
}

// MarketConfig holds external market-data provider configuration.
type MarketConfig struct {
	YahooBaseURL string
	FXSymbol     string // USD/JPY pair used for JPY-converted variants

	// Per-index overrides, keyed by instrument key.
	Symbols  map[string]string
	NAVBases map[string]string

	// Fund NAV pages (HTML) for fund-quoted instruments without an API.
	FundPages map[string]string

	// Per-index synthetic-fallback switches.
	AllowSynthetic map[string]bool

	RequestTimeout time.Duration
	RatePerSecond  float64
}

// HistoryConfig holds acquisition-layer tuning.
type HistoryConfig struct {
	TTL        time.Duration
	MaxRetries int
	Backoffs   []time.Duration
}

// BacktestConfig holds backtest defaults.
type BacktestConfig struct {
	AllowFallback bool // permit synthetic history in backtests
	BuyThreshold  float64
	SellThreshold float64
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// Load reads configuration from environment variables.
// This function is the only caller of os.Getenv.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Market: MarketConfig{
			YahooBaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			FXSymbol:     getEnv("USDJPY_SYMBOL", "JPY=X"),
			Symbols: map[string]string{
				"SP500":      getEnv("SP500_SYMBOL", "^GSPC"),
				"TOPIX":      getEnv("TOPIX_SYMBOL", "1306.T"),
				"NIKKEI":     getEnv("NIKKEI_SYMBOL", "^N225"),
				"NIFTY50":    getEnv("NIFTY50_SYMBOL", "^NSEI"),
				"ORUKAN":     getEnv("ORUKAN_SYMBOL", "ACWI"),
				"orukan_jpy": getEnv("ORUKAN_JPY_SYMBOL", getEnv("ORUKAN_SYMBOL", "ACWI")),
				"sp500_jpy":  getEnv("SP500_JPY_SYMBOL", getEnv("SP500_SYMBOL", "^GSPC")),
			},
			NAVBases: map[string]string{
				"SP500":   getEnv("SP500_NAV_API_BASE", ""),
				"TOPIX":   getEnv("TOPIX_NAV_API_BASE", ""),
				"NIKKEI":  getEnv("NIKKEI_NAV_API_BASE", ""),
				"NIFTY50": getEnv("NIFTY50_NAV_API_BASE", ""),
			},
			FundPages: map[string]string{
				"ORUKAN":     getEnv("ORUKAN_FUND_PAGE", ""),
				"orukan_jpy": getEnv("ORUKAN_FUND_PAGE", ""),
			},
			AllowSynthetic: map[string]bool{
				"SP500":      getEnvAsBool("SP500_ALLOW_SYNTHETIC_FALLBACK", true),
				"TOPIX":      getEnvAsBool("TOPIX_ALLOW_SYNTHETIC_FALLBACK", true),
				"NIKKEI":     getEnvAsBool("NIKKEI_ALLOW_SYNTHETIC_FALLBACK", true),
				"NIFTY50":    getEnvAsBool("NIFTY50_ALLOW_SYNTHETIC_FALLBACK", true),
				"ORUKAN":     true,
				"orukan_jpy": true,
				"sp500_jpy":  true,
			},
			RequestTimeout: getEnvAsDuration("MARKET_REQUEST_TIMEOUT", "10s"),
			RatePerSecond:  getEnvAsFloat("MARKET_RATE_PER_SECOND", 4.0),
		},

		History: HistoryConfig{
			TTL:        getEnvAsDuration("PRICE_HISTORY_TTL", "15m"),
			MaxRetries: getEnvAsInt("PRICE_HISTORY_MAX_RETRIES", 3),
			Backoffs: []time.Duration{
				200 * time.Millisecond,
				500 * time.Millisecond,
				1 * time.Second,
			},
		},

		Backtest: BacktestConfig{
			AllowFallback: getEnvAsBool("BACKTEST_ALLOW_FALLBACK", false),
			BuyThreshold:  getEnvAsFloat("BACKTEST_BUY_THRESHOLD", 40.0),
			SellThreshold: getEnvAsFloat("BACKTEST_SELL_THRESHOLD", 80.0),
		},

		SnapshotTTL: getEnvAsDuration("SNAPSHOT_TTL", "60s"),

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 */10 * * * *"),

		EventsFile: getEnv("EVENT_CALENDAR_FILE", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.History.MaxRetries < 1 {
		return fmt.Errorf("PRICE_HISTORY_MAX_RETRIES must be >= 1")
	}

	if c.Backtest.BuyThreshold >= c.Backtest.SellThreshold {
		return fmt.Errorf("BACKTEST_BUY_THRESHOLD must be below BACKTEST_SELL_THRESHOLD")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
