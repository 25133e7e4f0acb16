package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ysoda/indexpulse/internal/contracts"
	"github.com/ysoda/indexpulse/internal/instrument"
	"github.com/ysoda/indexpulse/internal/marketdata"
	"github.com/ysoda/indexpulse/pkg/config"
	"github.com/ysoda/indexpulse/pkg/logger"
)

// ErrHistoryUnavailable is raised only after retries, the secondary
// source, the last-good table, and the synthetic fallback have all been
// exhausted or are disallowed.
var ErrHistoryUnavailable = errors.New("history unavailable")

// SecondaryFactory builds the secondary "official" provider for an
// instrument, or returns nil when none is configured for it.
type SecondaryFactory func(spec instrument.Spec) marketdata.Provider

// Service is the sole source of price series for scoring and backtests.
// It runs the full acquisition state machine per call: TTL cache, primary
// fetch with validation and retry, then the ordered fallback chain.
type Service struct {
	registry  *instrument.Registry
	primary   marketdata.Provider
	secondary SecondaryFactory
	store     *Store
	cfg       config.HistoryConfig
	log       *logger.Logger

	// Injected for tests; backoff sleeps block only the calling request.
	sleep func(time.Duration)
}

// NewService wires the acquisition layer. secondary may be nil when no
// instrument has an official source configured.
func NewService(
	registry *instrument.Registry,
	primary marketdata.Provider,
	secondary SecondaryFactory,
	store *Store,
	cfg config.HistoryConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		registry:  registry,
		primary:   primary,
		secondary: secondary,
		store:     store,
		cfg:       cfg,
		log:       log,
		sleep:     time.Sleep,
	}
}

// GetHistory returns the validated daily close series for an instrument
// over [start, end]. A cache hit within the TTL answers without any
// network access; otherwise the freshest valid data wins and failures
// degrade through the fallback chain.
func (s *Service) GetHistory(ctx context.Context, key string, start, end time.Time) (contracts.Series, error) {
	return s.getHistory(ctx, key, start, end, true)
}

// GetStrictHistory behaves like GetHistory but never serves synthetic
// data, whatever the instrument's policy says. Simulations that must not
// run on fabricated prices use this entry point.
func (s *Service) GetStrictHistory(ctx context.Context, key string, start, end time.Time) (contracts.Series, error) {
	return s.getHistory(ctx, key, start, end, false)
}

func (s *Service) getHistory(ctx context.Context, key string, start, end time.Time, allowSynthetic bool) (contracts.Series, error) {
	spec, err := s.registry.Lookup(key)
	if err != nil {
		return nil, err
	}

	cacheKey := rangeKey(key, start, end)
	if series, ok := s.store.Cached(cacheKey); ok {
		return series, nil
	}

	log := s.log.WithFields(map[string]interface{}{
		"index":  key,
		"symbol": spec.Symbol,
	})

	// Primary source, up to MaxRetries attempts. Each attempt re-fetches
	// and re-validates independently.
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		series, err := s.fetchPrimary(ctx, spec, start, end)
		if err == nil {
			if verr := Validate(series, spec); verr != nil {
				err = verr
				last := 0.0
				if p, ok := series.Last(); ok {
					last = p.Close
				}
				log.Warnf("validation failed reason=%s attempt=%d points=%d last=%.2f",
					verr.Reason, attempt, len(series), last)
			} else {
				s.store.Accept(cacheKey, key, series)
				log.Infof("using primary history points=%d", len(series))
				return series, nil
			}
		} else {
			log.WithError(err).Warnf("history fetch failed attempt=%d", attempt)
		}
		lastErr = err

		if attempt < s.cfg.MaxRetries {
			s.sleep(s.backoff(attempt))
		}
	}

	// Secondary "official" source, validated identically.
	if series, ok := s.trySecondary(ctx, spec, start, end, log); ok {
		s.store.Accept(cacheKey, key, series)
		return series, nil
	}

	// Stale but previously validated.
	if series, ok := s.store.LastGood(key); ok {
		log.Infof("using last good history points=%d", len(series))
		return series, nil
	}

	if allowSynthetic && spec.AllowSynthetic {
		gen := marketdata.NewSyntheticGenerator(spec.Key, spec.StartPrice, spec.AnnualDrift)
		series, err := gen.GetHistory(ctx, spec.Symbol, start, end)
		if err == nil {
			log.Infof("using synthetic history points=%d", len(series))
			return series, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w for %s: %v", ErrHistoryUnavailable, key, lastErr)
}

// GetCurrentPrice resolves a live spot price through the same
// primary / secondary / last-of-history order. A single value is not
// subject to the series validation rules.
func (s *Service) GetCurrentPrice(ctx context.Context, key string) (marketdata.Quote, error) {
	spec, err := s.registry.Lookup(key)
	if err != nil {
		return marketdata.Quote{}, err
	}

	quote, err := s.currentFromPrimary(ctx, spec)
	if err == nil {
		return quote, nil
	}
	s.log.WithError(err).WithField("index", key).Warn("live quote unavailable from primary")

	if s.secondary != nil {
		if provider := s.secondary(spec); provider != nil {
			quote, serr := provider.GetCurrentPrice(ctx, spec.Symbol)
			if serr == nil {
				return quote, nil
			}
			s.log.WithError(serr).WithField("index", key).Warn("live quote unavailable from secondary")
		}
	}

	end := time.Now().UTC()
	series, herr := s.GetHistory(ctx, key, end.AddDate(0, 0, -30), end)
	if herr != nil {
		return marketdata.Quote{}, fmt.Errorf("current price unavailable for %s: %w", key, err)
	}
	last, _ := series.Last()
	return marketdata.Quote{Price: last.Close, Source: "history_close"}, nil
}

func (s *Service) currentFromPrimary(ctx context.Context, spec instrument.Spec) (marketdata.Quote, error) {
	quote, err := s.primary.GetCurrentPrice(ctx, spec.Symbol)
	if err != nil {
		return marketdata.Quote{}, err
	}

	if spec.JPYConverted() {
		fx, err := s.primary.GetCurrentPrice(ctx, spec.FXSymbol)
		if err != nil {
			return marketdata.Quote{}, fmt.Errorf("fx quote for %s: %w", spec.FXSymbol, err)
		}
		quote.Price *= fx.Price
	}

	return quote, nil
}

// fetchPrimary retrieves the raw series, converting through FX pointwise
// for JPY-quoted variants. Dates missing on either side are dropped.
func (s *Service) fetchPrimary(ctx context.Context, spec instrument.Spec, start, end time.Time) (contracts.Series, error) {
	series, err := s.primary.GetHistory(ctx, spec.Symbol, start, end)
	if err != nil {
		return nil, err
	}

	if !spec.JPYConverted() {
		return series, nil
	}

	fx, err := s.primary.GetHistory(ctx, spec.FXSymbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("fx history for %s: %w", spec.FXSymbol, err)
	}

	converted := convertJPY(series, fx)
	if len(converted) == 0 {
		return nil, fmt.Errorf("no overlapping dates for index and fx: %w", marketdata.ErrEmptyHistory)
	}
	return converted, nil
}

func (s *Service) trySecondary(ctx context.Context, spec instrument.Spec, start, end time.Time, log *logger.Logger) (contracts.Series, bool) {
	if s.secondary == nil {
		return nil, false
	}
	provider := s.secondary(spec)
	if provider == nil {
		return nil, false
	}

	series, err := provider.GetHistory(ctx, spec.Symbol, start, end)
	if err != nil {
		log.WithError(err).Warn("secondary history fetch failed")
		return nil, false
	}
	if verr := Validate(series, spec); verr != nil {
		log.Warnf("secondary validation failed reason=%s points=%d", verr.Reason, len(series))
		return nil, false
	}

	log.Infof("using secondary history points=%d", len(series))
	return series, true
}

func (s *Service) backoff(attempt int) time.Duration {
	if len(s.cfg.Backoffs) == 0 {
		return 0
	}
	if attempt > len(s.cfg.Backoffs) {
		attempt = len(s.cfg.Backoffs)
	}
	return s.cfg.Backoffs[attempt-1]
}

// convertJPY multiplies the index series by the FX series on the
// intersection of their dates.
func convertJPY(index, fx contracts.Series) contracts.Series {
	rates := make(map[time.Time]float64, len(fx))
	for _, p := range fx {
		rates[p.Date] = p.Close
	}

	out := make(contracts.Series, 0, len(index))
	for _, p := range index {
		rate, ok := rates[p.Date]
		if !ok {
			continue
		}
		out = append(out, contracts.PricePoint{Date: p.Date, Close: p.Close * rate})
	}
	return out
}

func rangeKey(key string, start, end time.Time) string {
	return fmt.Sprintf("%s:%s:%s", key, start.Format("2006-01-02"), end.Format("2006-01-02"))
}
