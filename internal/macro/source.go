package macro

import (
	"context"
	"time"

	"github.com/ysoda/indexpulse/internal/contracts"
	"github.com/ysoda/indexpulse/internal/marketdata"
	"github.com/ysoda/indexpulse/internal/scoring"
	"github.com/ysoda/indexpulse/pkg/logger"
)

// Named macro series and the quoted proxies they read from.
const (
	SeriesRate       = "r_10y"
	SeriesInflation  = "cpi"
	SeriesVolatility = "vix"
)

var proxySymbols = map[string]string{
	SeriesRate:       "^TNX",
	SeriesInflation:  "CPI",
	SeriesVolatility: "^VIX",
}

// Synthetic anchors per series, used when the provider cannot serve the
// proxy (the CPI series has no quoted proxy at all and always falls
// through here).
var syntheticBaselines = map[string]struct {
	start float64
	drift float64
}{
	SeriesRate:       {start: 3.5, drift: 0.02},
	SeriesInflation:  {start: 300.0, drift: 0.025},
	SeriesVolatility: {start: 18.0, drift: 0.01},
}

// historyYears is the lookback each reading is ranked against.
const historyYears = 5

// Source assembles the three macro inputs of the composite score. Each
// series is fetched from the market-data provider where a quoted proxy
// exists and generated deterministically otherwise, so scoring never
// blocks on macro availability.
type Source struct {
	provider marketdata.Provider
	log      *logger.Logger
	now      func() time.Time
}

// NewSource wires a macro source over a provider. provider may be nil,
// in which case every series is synthetic.
func NewSource(provider marketdata.Provider, log *logger.Logger) *Source {
	return &Source{
		provider: provider,
		log:      log,
		now:      time.Now,
	}
}

// Samples fetches all three series and packages them for the macro
// score. Failures degrade to the synthetic series rather than erroring.
func (s *Source) Samples(ctx context.Context) (rate, inflation, volatility scoring.MacroSample) {
	rate = s.sample(ctx, SeriesRate)
	inflation = s.sample(ctx, SeriesInflation)
	volatility = s.sample(ctx, SeriesVolatility)
	return rate, inflation, volatility
}

// SeriesRange returns the dated series of all three macro inputs over
// [start, end], keyed by series name. Backtests filter these by date to
// avoid lookahead. The same degradation rules as Samples apply.
func (s *Source) SeriesRange(ctx context.Context, start, end time.Time) map[string]contracts.Series {
	out := make(map[string]contracts.Series, len(proxySymbols))
	for _, name := range []string{SeriesRate, SeriesInflation, SeriesVolatility} {
		out[name] = s.seriesFor(ctx, name, start, end)
	}
	return out
}

func (s *Source) seriesFor(ctx context.Context, name string, start, end time.Time) contracts.Series {
	if s.provider != nil {
		if symbol, ok := proxySymbols[name]; ok {
			series, err := s.provider.GetHistory(ctx, symbol, start, end)
			if err == nil && len(series) > 0 {
				return series
			}
			if err != nil {
				s.log.WithError(err).WithField("series", name).Warn("macro proxy unavailable, using synthetic series")
			}
		}
	}

	baseline := syntheticBaselines[name]
	gen := marketdata.NewSyntheticGenerator("macro_"+name, baseline.start, baseline.drift)
	series, err := gen.GetHistory(ctx, name, start, end)
	if err != nil {
		return nil
	}
	return series
}

func (s *Source) sample(ctx context.Context, name string) scoring.MacroSample {
	end := s.now().UTC()
	start := end.AddDate(-historyYears, 0, 0)

	series := s.seriesFor(ctx, name, start, end)
	if len(series) == 0 {
		// The generator only fails on an empty date range.
		return scoring.MacroSample{Current: syntheticBaselines[name].start}
	}

	closes := series.Closes()
	if len(closes) == 1 {
		// A single reading ranks against itself.
		closes = append(closes, closes[0])
	}
	return scoring.MacroSample{
		History: closes[:len(closes)-1],
		Current: closes[len(closes)-1],
	}
}
