package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ysoda/indexpulse/internal/contracts"
	"github.com/ysoda/indexpulse/internal/events"
	"github.com/ysoda/indexpulse/internal/macro"
	"github.com/ysoda/indexpulse/internal/scoring"
	"github.com/ysoda/indexpulse/pkg/logger"
)

// InsufficientHistoryError is fatal: the requested range cannot seat the
// warmup window. It is reported before any simulation starts, since no
// fallback can fix an inherently too-short range.
type InsufficientHistoryError struct {
	Need int
	Have int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("not enough price history to run backtest: need >= %d days, have %d", e.Need, e.Have)
}

// HistorySource supplies the validated price series. Satisfied by the
// acquisition layer. The strict variant refuses synthetic fallback data.
type HistorySource interface {
	GetHistory(ctx context.Context, key string, start, end time.Time) (contracts.Series, error)
	GetStrictHistory(ctx context.Context, key string, start, end time.Time) (contracts.Series, error)
}

// MacroSource supplies dated macro series for lookahead-free replay.
type MacroSource interface {
	SeriesRange(ctx context.Context, start, end time.Time) map[string]contracts.Series
}

// Config is one backtest request.
type Config struct {
	IndexKey      string
	Start         time.Time
	End           time.Time
	InitialCash   float64
	BuyThreshold  float64
	SellThreshold float64
	ScoreWindow   int

	// AllowSyntheticFallback permits simulating on synthetic history when
	// every real source fails. Off unless explicitly enabled: a backtest
	// against fabricated prices measures nothing.
	AllowSyntheticFallback bool
}

// Engine replays the composite score over history and simulates a simple
// long/flat strategy against it.
type Engine struct {
	history  HistorySource
	macro    MacroSource
	calendar *events.Calendar
	log      *logger.Logger
}

// NewEngine wires a backtest engine over the acquisition layer and the
// score collaborators.
func NewEngine(history HistorySource, macro MacroSource, calendar *events.Calendar, log *logger.Logger) *Engine {
	return &Engine{
		history:  history,
		macro:    macro,
		calendar: calendar,
		log:      log,
	}
}

// Run executes one backtest. Trading starts at the first index where the
// warmup window is fully seated; every day before that only tracks value.
func (e *Engine) Run(ctx context.Context, cfg Config) (*contracts.BacktestResult, error) {
	if cfg.ScoreWindow <= 0 {
		cfg.ScoreWindow = scoring.DefaultBaseWindow
	}

	fetch := e.history.GetStrictHistory
	if cfg.AllowSyntheticFallback {
		fetch = e.history.GetHistory
	}
	prices, err := fetch(ctx, cfg.IndexKey, cfg.Start, cfg.End)
	if err != nil {
		return nil, fmt.Errorf("backtest history: %w", err)
	}

	required := cfg.ScoreWindow
	if required < 200 {
		required = 200
	}
	if len(prices) < required {
		return nil, &InsufficientHistoryError{Need: required, Have: len(prices)}
	}

	macroSeries := e.macro.SeriesRange(ctx, cfg.Start, cfg.End)

	warmup := cfg.ScoreWindow - 1
	if warmup < 199 {
		warmup = 199
	}

	cash := cfg.InitialCash
	var shares int64

	// Buy-and-hold benchmark, seeded once at t0.
	firstClose := prices[0].Close
	holdShares := int64(math.Floor(cfg.InitialCash / firstClose))
	holdCash := cfg.InitialCash - float64(holdShares)*firstClose

	trades := make([]contracts.TradeRecord, 0, 8)
	portfolio := make([]contracts.ValuePoint, 0, len(prices))
	buyHold := make([]contracts.ValuePoint, 0, len(prices))

	for idx, point := range prices {
		if idx >= warmup {
			score := e.scoreAt(ctx, prices[:idx+1], macroSeries, point.Date, cfg.ScoreWindow)

			if shares > 0 && score >= cfg.SellThreshold {
				cash += float64(shares) * point.Close
				trades = append(trades, contracts.TradeRecord{
					Action:   contracts.TradeSell,
					Date:     point.Date,
					Quantity: shares,
					Price:    point.Close,
				})
				shares = 0
			} else if shares == 0 && score < cfg.BuyThreshold {
				qty := int64(math.Floor(cash / point.Close))
				if qty > 0 {
					cash -= float64(qty) * point.Close
					shares = qty
					trades = append(trades, contracts.TradeRecord{
						Action:   contracts.TradeBuy,
						Date:     point.Date,
						Quantity: qty,
						Price:    point.Close,
					})
				}
			}
		}

		portfolio = append(portfolio, contracts.ValuePoint{
			Date:  point.Date,
			Value: cash + float64(shares)*point.Close,
		})
		buyHold = append(buyHold, contracts.ValuePoint{
			Date:  point.Date,
			Value: holdCash + float64(holdShares)*point.Close,
		})
	}

	finalClose := prices[len(prices)-1].Close
	finalValue := cash + float64(shares)*finalClose
	holdFinal := holdCash + float64(holdShares)*finalClose

	result := &contracts.BacktestResult{
		FinalValue:       finalValue,
		BuyAndHoldFinal:  holdFinal,
		TradeCount:       len(trades),
		Trades:           trades,
		PortfolioHistory: portfolio,
		BuyHoldHistory:   buyHold,
	}
	e.fillMetrics(result, prices, cfg.InitialCash)

	e.log.WithFields(map[string]interface{}{
		"index":  cfg.IndexKey,
		"trades": len(trades),
	}).Infof("backtest complete final=%.2f hold=%.2f", finalValue, holdFinal)

	return result, nil
}

// scoreAt recomputes the composite score using only data up to and
// including the current day.
func (e *Engine) scoreAt(ctx context.Context, prices contracts.Series, macroSeries map[string]contracts.Series, day time.Time, scoreWindow int) float64 {
	technical, _, err := scoring.CalculateTechnicalScore(prices, scoreWindow)
	if err != nil {
		// The warmup guard keeps this from happening; score neutral if
		// it ever does.
		return 50
	}

	rate := macroSampleAt(macroSeries[macro.SeriesRate], day)
	inflation := macroSampleAt(macroSeries[macro.SeriesInflation], day)
	volatility := macroSampleAt(macroSeries[macro.SeriesVolatility], day)
	macroScore, _ := scoring.CalculateMacroScore(rate, inflation, volatility)

	var eventAdj float64
	if e.calendar != nil {
		eventAdj = events.CalculateAdjustment(day, e.calendar.EventsFor(day))
	}

	ma500, ma1000, ultraOK := scoring.UltraLongMAs(prices)
	price := prices[len(prices)-1].Close

	return scoring.CalculateTotalScore(technical, macroScore, eventAdj, price, ma500, ma1000, ultraOK)
}

// macroSampleAt restricts a dated series to points at or before day: the
// final value is the current reading, everything earlier is the ranking
// history.
func macroSampleAt(series contracts.Series, day time.Time) scoring.MacroSample {
	usable := make([]float64, 0, len(series))
	for _, p := range series {
		if p.Date.After(day) {
			break
		}
		usable = append(usable, p.Close)
	}
	if len(usable) == 0 {
		return scoring.MacroSample{}
	}
	if len(usable) == 1 {
		// A single reading ranks against itself.
		usable = append(usable, usable[0])
	}
	return scoring.MacroSample{
		History: usable[:len(usable)-1],
		Current: usable[len(usable)-1],
	}
}

func (e *Engine) fillMetrics(result *contracts.BacktestResult, prices contracts.Series, initialCash float64) {
	if initialCash > 0 {
		result.TotalReturnPct = (result.FinalValue/initialCash - 1) * 100

		days := prices.SpanDays()
		years := float64(days) / 365.0
		if days <= 0 {
			years = 1
		}
		result.CAGRPct = (math.Pow(result.FinalValue/initialCash, 1/years) - 1) * 100
	}

	values := make([]float64, len(result.PortfolioHistory))
	for i, p := range result.PortfolioHistory {
		values[i] = p.Value
	}
	result.MaxDrawdownPct = maxDrawdown(values) * 100
	result.VolatilityPct = annualizedVolatility(values) * 100

	if result.VolatilityPct > 0 {
		result.SharpeRatio = result.CAGRPct / result.VolatilityPct
	}
}

// maxDrawdown is the worst peak-to-trough loss, tracked against a
// monotonically rising peak. Never negative.
func maxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	peak := values[0]
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak != 0 {
			dd := (peak - v) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// annualizedVolatility is the standard deviation of daily returns scaled
// to a 252-day trading year.
func annualizedVolatility(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		returns = append(returns, values[i]/values[i-1]-1)
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(252)
}
