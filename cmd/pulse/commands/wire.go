package commands

import (
	"fmt"

	"github.com/ysoda/indexpulse/internal/backtest"
	"github.com/ysoda/indexpulse/internal/events"
	"github.com/ysoda/indexpulse/internal/history"
	"github.com/ysoda/indexpulse/internal/instrument"
	"github.com/ysoda/indexpulse/internal/macro"
	"github.com/ysoda/indexpulse/internal/marketdata"
	"github.com/ysoda/indexpulse/internal/snapshot"
	"github.com/ysoda/indexpulse/pkg/config"
	"github.com/ysoda/indexpulse/pkg/httputil"
	"github.com/ysoda/indexpulse/pkg/logger"
	"github.com/ysoda/indexpulse/pkg/redis"
)

// app bundles the wired components every command builds on.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *instrument.Registry
	history  *history.Service
	macro    *macro.Source
	calendar *events.Calendar
	builder  *snapshot.Builder
	engine   *backtest.Engine
	redis    *redis.Client
}

// buildApp loads config and assembles the full component graph. Redis is
// optional; when disabled the snapshot builder runs memory-only.
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	httpClient := httputil.New(log, cfg.Market.RequestTimeout).
		WithRateLimit(cfg.Market.RatePerSecond)

	yahoo := marketdata.NewYahooClient(httpClient, log, cfg.Market.YahooBaseURL)
	registry := instrument.NewRegistry(cfg.Market)

	secondary := func(spec instrument.Spec) marketdata.Provider {
		switch {
		case spec.NAVBase != "":
			return marketdata.NewNAVClient(httpClient, log, spec.NAVBase, spec.Symbol)
		case spec.FundPageURL != "":
			return marketdata.NewFundNAVScraper(httpClient, log, spec.FundPageURL)
		default:
			return nil
		}
	}

	store := history.NewStore(cfg.History.TTL)
	historySvc := history.NewService(registry, yahoo, secondary, store, cfg.History, log)

	macroSource := macro.NewSource(yahoo, log)

	calendar, err := events.LoadCalendar(log, cfg.EventsFile)
	if err != nil {
		return nil, fmt.Errorf("load event calendar: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	var cache *redis.Cache
	if redisClient.Enabled() {
		cache = redis.NewCache(redisClient, "indexpulse")
	}

	builder := snapshot.NewBuilder(historySvc, macroSource, calendar, cache, cfg.SnapshotTTL, log)
	engine := backtest.NewEngine(historySvc, macroSource, calendar, log)

	return &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		history:  historySvc,
		macro:    macroSource,
		calendar: calendar,
		builder:  builder,
		engine:   engine,
		redis:    redisClient,
	}, nil
}

// close releases shared resources.
func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis client")
		}
	}
}
