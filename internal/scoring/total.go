package scoring

import (
	"github.com/ysoda/indexpulse/internal/contracts"
)

// Composite weights and the ultra-long-horizon guard tuning. The guard
// constants are empirical; treat them as tunable parameters.
const (
	weightTechnical = 0.7
	weightMacro     = 0.3

	ultraLongAttenuationFloor = 0.6
	ultraLongAttenuationSlope = 1.5
)

// UltraLongMAs returns the latest 500- and 1000-day moving averages.
// ok is false when the series cannot support both horizons, in which
// case the attenuation guard is skipped entirely.
func UltraLongMAs(series contracts.Series) (ma500, ma1000 float64, ok bool) {
	closes := series.Closes()

	ma500, ok500 := LatestMovingAverage(closes, 500)
	ma1000, ok1000 := LatestMovingAverage(closes, 1000)
	return ma500, ma1000, ok500 && ok1000
}

// belowRatio measures how far price sits under an MA, as a fraction of
// the MA. Zero when price is at or above it.
func belowRatio(price, ma float64) float64 {
	if ma <= 0 || price >= ma {
		return 0
	}
	return (ma - price) / ma
}

// CalculateAttenuation computes the multiplicative dampener from the
// ultra-long drawdown. The worst horizon wins: a crash relative to either
// the 500- or 1000-day average is enough to trigger attenuation.
func CalculateAttenuation(price, ma500, ma1000 float64) float64 {
	dd500 := belowRatio(price, ma500)
	dd1000 := belowRatio(price, ma1000)

	ultraDD := dd500
	if dd1000 > ultraDD {
		ultraDD = dd1000
	}

	attenuation := 1.0 - ultraDD*ultraLongAttenuationSlope
	if attenuation < ultraLongAttenuationFloor {
		attenuation = ultraLongAttenuationFloor
	}
	return attenuation
}

// CalculateTotalScore blends the sub-scores and applies the ultra-long
// attenuation guard when both horizons are available. The guard keeps the
// blend from issuing an aggressive sell during a structural downturn.
func CalculateTotalScore(technical, macro, eventAdjustment, price float64, ma500, ma1000 float64, ultraOK bool) float64 {
	raw := clip(weightTechnical*technical+weightMacro*macro+eventAdjustment, 0, 100)

	if ultraOK && price > 0 {
		raw = raw * CalculateAttenuation(price, ma500, ma1000)
	}

	return clip(raw, 0, 100)
}

// Label translates a total score into the user-facing recommendation.
func Label(score float64) string {
	switch {
	case score >= 80:
		return "strong partial profit-take"
	case score >= 60:
		return "consider profit-take"
	case score >= 40:
		return "hold"
	default:
		return "consider adding"
	}
}
