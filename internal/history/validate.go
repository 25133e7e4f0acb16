package history

import (
	"fmt"
	"math"

	"github.com/ysoda/indexpulse/internal/contracts"
	"github.com/ysoda/indexpulse/internal/instrument"
)

const (
	// Any freshly fetched series must clear these before acceptance.
	minAbsolutePoints = 30
	longSpanDays      = 365 * 3
	maxDailyJump      = 0.20

	// Sanity band around the instrument's reference start price.
	scaleFloorMultiple   = 0.4
	scaleCeilingMultiple = 5.0

	// The S&P 500 additionally carries an absolute floor.
	sp500PriceFloor = 3000.0
)

// ValidationError marks a series that was fetched but rejected. Reason is
// a stable machine-readable tag; it is the diagnostic surface, never a
// raw provider message.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("history validation failed for %s: %s", e.Key, e.Reason)
}

// Validate applies the anomaly heuristics to a candidate series. A nil
// return means the series is acceptable; otherwise the returned
// ValidationError names the first rule that failed.
func Validate(series contracts.Series, spec instrument.Spec) *ValidationError {
	reject := func(reason string) *ValidationError {
		return &ValidationError{Key: spec.Key, Reason: reason}
	}

	if len(series) == 0 {
		return reject("empty_history")
	}
	if len(series) < minAbsolutePoints {
		return reject(fmt.Sprintf("too_few_points:%d", len(series)))
	}
	if series.SpanDays() >= longSpanDays && len(series) < spec.MinPoints {
		return reject(fmt.Sprintf("insufficient_points:%d<%d", len(series), spec.MinPoints))
	}

	prev := 0.0
	for _, p := range series {
		if math.IsNaN(p.Close) {
			return reject("invalid_price:nan")
		}
		if p.Close <= 0 {
			return reject(fmt.Sprintf("invalid_price:non_positive:%g", p.Close))
		}

		if prev > 0 {
			jump := math.Abs((p.Close - prev) / prev)
			if jump > maxDailyJump {
				return reject(fmt.Sprintf("abnormal_daily_jump:%.4f", jump))
			}
		}
		prev = p.Close
	}

	last := series[len(series)-1].Close
	if spec.Key == "SP500" && last < sp500PriceFloor {
		return reject(fmt.Sprintf("abnormal_sp500_price:%.2f", last))
	}

	if spec.StartPrice > 0 {
		floor := spec.StartPrice * scaleFloorMultiple
		ceiling := spec.StartPrice * scaleCeilingMultiple
		if last < floor {
			return reject(fmt.Sprintf("abnormal_scale_low:%.2f<%.2f", last, floor))
		}
		if last > ceiling {
			return reject(fmt.Sprintf("abnormal_scale_high:%.2f>%.2f", last, ceiling))
		}
	}

	return nil
}
