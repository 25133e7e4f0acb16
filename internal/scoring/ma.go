package scoring

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is returned when a series is shorter than the
// requested moving-average window.
var ErrInsufficientData = errors.New("insufficient data")

// MovingAverage returns the trailing simple moving average of closes for
// the given window: one value per index from window-1 onward. No rounding
// is applied here; presentation rounding is the caller's concern.
func MovingAverage(closes []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, fmt.Errorf("invalid window %d", window)
	}
	if len(closes) < window {
		return nil, fmt.Errorf("%w for MA%d: have %d points", ErrInsufficientData, window, len(closes))
	}

	out := make([]float64, 0, len(closes)-window+1)
	sum := 0.0
	for i, v := range closes {
		sum += v
		if i >= window {
			sum -= closes[i-window]
		}
		if i+1 >= window {
			out = append(out, sum/float64(window))
		}
	}

	return out, nil
}

// LatestMovingAverage returns the most recent window-average, or false
// when the series is too short. Used for soft signals that simply go
// inactive without enough data.
func LatestMovingAverage(closes []float64, window int) (float64, bool) {
	if window <= 0 || len(closes) < window {
		return 0, false
	}

	sum := 0.0
	for _, v := range closes[len(closes)-window:] {
		sum += v
	}
	return sum / float64(window), true
}

// clip bounds a value to [lower, upper].
func clip(value, lower, upper float64) float64 {
	if value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}
