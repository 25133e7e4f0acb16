package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ysoda/indexpulse/internal/contracts"
	"github.com/ysoda/indexpulse/internal/events"
	"github.com/ysoda/indexpulse/internal/marketdata"
	"github.com/ysoda/indexpulse/internal/scoring"
	"github.com/ysoda/indexpulse/pkg/logger"
	"github.com/ysoda/indexpulse/pkg/redis"
)

// historyYears is the lookback window a snapshot is computed over.
const historyYears = 5

// HistorySource is the slice of the acquisition layer the builder needs.
type HistorySource interface {
	GetHistory(ctx context.Context, key string, start, end time.Time) (contracts.Series, error)
	GetCurrentPrice(ctx context.Context, key string) (marketdata.Quote, error)
}

// MacroSource supplies the three macro samples.
type MacroSource interface {
	Samples(ctx context.Context) (rate, inflation, volatility scoring.MacroSample)
}

type cached struct {
	snapshot *contracts.Snapshot
	builtAt  time.Time
}

// Builder assembles the caller-facing snapshot for an instrument:
// live price, composite scores, the MA-decorated series and detail
// records. Results are cached in memory per key with a short TTL, with
// an optional shared redis layer in front of recomputation.
type Builder struct {
	history  HistorySource
	macro    MacroSource
	calendar *events.Calendar
	cache    *redis.Cache
	log      *logger.Logger

	ttl  time.Duration
	mu   sync.Mutex
	mem  map[string]cached
	now  func() time.Time
}

// NewBuilder wires a snapshot builder. cache may be nil when redis is
// disabled.
func NewBuilder(
	hist HistorySource,
	m MacroSource,
	calendar *events.Calendar,
	cache *redis.Cache,
	ttl time.Duration,
	log *logger.Logger,
) *Builder {
	return &Builder{
		history:  hist,
		macro:    m,
		calendar: calendar,
		cache:    cache,
		log:      log,
		ttl:      ttl,
		mem:      make(map[string]cached),
		now:      time.Now,
	}
}

// Build returns the snapshot for an instrument, serving from cache when
// a fresh one exists.
func (b *Builder) Build(ctx context.Context, key string) (*contracts.Snapshot, error) {
	b.mu.Lock()
	if entry, ok := b.mem[key]; ok && b.now().Sub(entry.builtAt) < b.ttl {
		b.mu.Unlock()
		return entry.snapshot, nil
	}
	b.mu.Unlock()

	if b.cache != nil {
		var snap contracts.Snapshot
		hit, err := b.cache.Get(ctx, redis.SnapshotKey(key), &snap)
		if err != nil {
			b.log.WithError(err).Warn("snapshot cache read failed")
		}
		if hit {
			b.remember(key, &snap)
			return &snap, nil
		}
	}

	snap, err := b.build(ctx, key)
	if err != nil {
		return nil, err
	}

	b.remember(key, snap)
	if b.cache != nil {
		if err := b.cache.Set(ctx, redis.SnapshotKey(key), snap, b.ttl); err != nil {
			b.log.WithError(err).Warn("snapshot cache write failed")
		}
	}
	return snap, nil
}

func (b *Builder) build(ctx context.Context, key string) (*contracts.Snapshot, error) {
	end := b.now().UTC()
	start := end.AddDate(-historyYears, 0, 0)

	series, err := b.history.GetHistory(ctx, key, start, end)
	if err != nil {
		return nil, fmt.Errorf("snapshot history for %s: %w", key, err)
	}

	technical, techDetails, err := scoring.CalculateTechnicalScore(series, scoring.DefaultBaseWindow)
	if err != nil {
		return nil, fmt.Errorf("snapshot technical score for %s: %w", key, err)
	}

	rate, inflation, volatility := b.macro.Samples(ctx)
	macroScore, macroDetails := scoring.CalculateMacroScore(rate, inflation, volatility)

	today := end.Truncate(24 * time.Hour)
	var nearby []contracts.Event
	var eventAdj float64
	if b.calendar != nil {
		nearby = b.calendar.EventsFor(today)
		eventAdj = events.CalculateAdjustment(today, nearby)
	}

	quote, err := b.history.GetCurrentPrice(ctx, key)
	if err != nil {
		// The decorated series is already validated; close out on it.
		last, _ := series.Last()
		quote = marketdata.Quote{Price: last.Close, Source: "history_close"}
	}

	ma500, ma1000, ultraOK := scoring.UltraLongMAs(series)
	total := scoring.CalculateTotalScore(technical, macroScore, eventAdj, quote.Price, ma500, ma1000, ultraOK)

	snap := &contracts.Snapshot{
		IndexKey:     key,
		CurrentPrice: quote.Price,
		PriceSource:  quote.Source,
		Scores: contracts.ScoreBreakdown{
			Technical:       technical,
			Macro:           macroScore,
			EventAdjustment: eventAdj,
			Total:           total,
			Label:           scoring.Label(total),
		},
		PriceSeries:      DecorateSeries(series),
		TechnicalDetails: techDetails,
		MacroDetails:     macroDetails,
		EventDetails:     nearby,
	}
	return snap, nil
}

func (b *Builder) remember(key string, snap *contracts.Snapshot) {
	b.mu.Lock()
	b.mem[key] = cached{snapshot: snap, builtAt: b.now()}
	b.mu.Unlock()
}

// DecorateSeries attaches the 20/60/200-day moving averages to each
// point. An MA stays nil until its window fits.
func DecorateSeries(series contracts.Series) []contracts.SeriesPoint {
	closes := series.Closes()
	ma20 := rollingMA(closes, 20)
	ma60 := rollingMA(closes, 60)
	ma200 := rollingMA(closes, 200)

	out := make([]contracts.SeriesPoint, len(series))
	for i, p := range series {
		out[i] = contracts.SeriesPoint{
			Date:  p.Date,
			Close: p.Close,
			MA20:  ma20[i],
			MA60:  ma60[i],
			MA200: ma200[i],
		}
	}
	return out
}

// rollingMA returns one slot per input point, nil while the window does
// not fit yet.
func rollingMA(closes []float64, window int) []*float64 {
	out := make([]*float64, len(closes))

	running := 0.0
	for i, c := range closes {
		running += c
		if i >= window {
			running -= closes[i-window]
		}
		if i+1 >= window {
			v := running / float64(window)
			out[i] = &v
		}
	}
	return out
}
