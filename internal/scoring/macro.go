package scoring

import (
	"github.com/ysoda/indexpulse/internal/contracts"
)

// Macro sub-score weights. Rates lead; inflation and volatility split the
// remainder.
const (
	macroWeightRate       = 0.4
	macroWeightInflation  = 0.3
	macroWeightVolatility = 0.3
)

// MacroSample is one named macro series: its history and the current
// reading to rank against it.
type MacroSample struct {
	History []float64
	Current float64
}

// CalculateMacroScore ranks each macro reading against its own history
// and blends the percentiles into a 0-100 score. High rates, hot
// inflation and elevated volatility all push toward profit-taking.
func CalculateMacroScore(rate, inflation, volatility MacroSample) (float64, contracts.MacroDetails) {
	ratePct := percentile(rate.History, rate.Current)
	inflPct := percentile(inflation.History, inflation.Current)
	volPct := percentile(volatility.History, volatility.Current)

	score := clip(
		macroWeightRate*ratePct+
			macroWeightInflation*inflPct+
			macroWeightVolatility*volPct,
		0, 100)

	details := contracts.MacroDetails{
		RatePercentile:       ratePct,
		InflationPercentile:  inflPct,
		VolatilityPercentile: volPct,
		RateCurrent:          rate.Current,
		InflationCurrent:     inflation.Current,
		VolatilityCurrent:    volatility.Current,
	}

	return score, details
}

// percentile returns the share of history at or below current, on a
// 0-100 scale. An empty history ranks the reading as neutral.
func percentile(history []float64, current float64) float64 {
	if len(history) == 0 {
		return 50
	}

	atOrBelow := 0
	for _, v := range history {
		if v <= current {
			atOrBelow++
		}
	}

	return float64(atOrBelow) / float64(len(history)) * 100
}
