package events

import (
	"math"
	"time"

	"github.com/ysoda/indexpulse/internal/contracts"
)

const (
	adjustmentProximityDays = 7
	adjustmentMax           = 10.0
)

// CalculateAdjustment converts nearby events into a bounded additive
// nudge on the composite score. Each event within seven days of target
// contributes its importance scaled by proximity (full weight on the
// day itself, fading linearly to zero at the window edge). The total is
// clipped to [0, 10]: imminent high-importance events lean the score
// toward caution but can never dominate it.
func CalculateAdjustment(target time.Time, events []contracts.Event) float64 {
	total := 0.0
	for _, e := range events {
		days := math.Abs(float64(e.DaysFrom(target)))
		if days > adjustmentProximityDays {
			continue
		}
		proximity := 1 - days/(adjustmentProximityDays+1)
		total += float64(e.Importance) * proximity
	}

	if total > adjustmentMax {
		return adjustmentMax
	}
	if total < 0 {
		return 0
	}
	return total
}
