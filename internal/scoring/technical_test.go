package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysoda/indexpulse/internal/contracts"
)

// seriesFromCloses builds a series with sequential dates, which the
// technical score ignores anyway.
func seriesFromCloses(closes []float64) contracts.Series {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(contracts.Series, len(closes))
	for i, c := range closes {
		series[i] = contracts.PricePoint{Date: base.AddDate(0, 0, i), Close: c}
	}
	return series
}

func flatCloses(n int, level float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = level
	}
	return closes
}

func TestCalculateTechnicalScore_FlatSeries(t *testing.T) {
	series := seriesFromCloses(flatCloses(250, 100))

	score, details, err := CalculateTechnicalScore(series, 200)
	require.NoError(t, err)

	// Flat market: zero deviation lands on the 30-point anchor, no trend,
	// no convergence.
	assert.InDelta(t, 0.0, details.Deviation, 1e-9)
	assert.InDelta(t, 30.0, details.Base, 1e-9)
	assert.Equal(t, 0.0, details.Trend)
	assert.Equal(t, 0.0, details.Adjustment)
	assert.InDelta(t, 30.0, score, 1e-9)
}

func TestCalculateTechnicalScore_ScaleInvariance(t *testing.T) {
	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 100 + 20*math.Sin(float64(i)/15) + float64(i)*0.1
	}

	score1, details1, err := CalculateTechnicalScore(seriesFromCloses(closes), 200)
	require.NoError(t, err)

	scaled := make([]float64, len(closes))
	for i, c := range closes {
		scaled[i] = c * 7.5
	}
	score2, details2, err := CalculateTechnicalScore(seriesFromCloses(scaled), 200)
	require.NoError(t, err)

	// Deviation and the derived scores are pure ratios.
	assert.InDelta(t, details1.Deviation, details2.Deviation, 1e-9)
	assert.InDelta(t, details1.Base, details2.Base, 1e-9)
	assert.InDelta(t, details1.Trend, details2.Trend, 1e-9)
	assert.InDelta(t, score1, score2, 1e-9)
}

func TestCalculateTechnicalScore_InsufficientData(t *testing.T) {
	series := seriesFromCloses(flatCloses(150, 100))

	_, _, err := CalculateTechnicalScore(series, 200)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestBaseScore_Anchors(t *testing.T) {
	tests := []struct {
		d    float64
		want float64
	}{
		{-25, 0},
		{-20, 0},
		{-10, 15},
		{0, 30},
		{5, 40},
		{10, 50},
		{17.5, 65},
		{25, 100},
		{40, 100},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, baseScore(tt.d), 1e-9, "d=%.1f", tt.d)
	}
}

func TestCalculateTechnicalScore_UptrendBonus(t *testing.T) {
	// Steady ascent: MA20 > MA60 > MA200 and the short MA keeps rising.
	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 100 * math.Pow(1.001, float64(i))
	}

	_, details, err := CalculateTechnicalScore(seriesFromCloses(closes), 200)
	require.NoError(t, err)
	assert.Equal(t, 10.0, details.Trend)
}

func TestCalculateTechnicalScore_DowntrendPenalty(t *testing.T) {
	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 400 * math.Pow(0.999, float64(i))
	}

	_, details, err := CalculateTechnicalScore(seriesFromCloses(closes), 200)
	require.NoError(t, err)
	assert.Equal(t, -10.0, details.Trend)
}

func TestConvergenceAdjustment_InactiveInsideBand(t *testing.T) {
	// Mild 5% extension: well inside the +-15% band.
	closes := flatCloses(250, 100)
	for i := 230; i < 250; i++ {
		closes[i] = 105
	}

	adj, details := convergenceAdjustment(closes)
	assert.Equal(t, 0.0, adj)
	assert.False(t, details.Active)
}

func TestConvergenceAdjustment_ExtendedAboveAddsSellPressure(t *testing.T) {
	// Long flat base, then a spike that pushes price ~25% above MA200
	// and has already started rolling over so reversion signals fire.
	closes := flatCloses(300, 100)
	for i := 270; i < 290; i++ {
		closes[i] = 100 + float64(i-269)*2.5 // ramp to 150
	}
	for i := 290; i < 300; i++ {
		closes[i] = 150 - float64(i-289)*2.0 // roll over to 130
	}

	adj, details := convergenceAdjustment(closes)
	require.True(t, details.Active)
	assert.Greater(t, details.Deviation, convergenceTriggerDeviation)
	assert.Greater(t, adj, 0.0, "extension above MA200 adds sell pressure")
	assert.LessOrEqual(t, adj, convergenceMaxAdjustment)
}

func TestConvergenceAdjustment_ExtendedBelowReducesScore(t *testing.T) {
	// Crash below MA200 with a bounce under way: buy pressure.
	closes := flatCloses(300, 100)
	for i := 270; i < 290; i++ {
		closes[i] = 100 - float64(i-269)*2.0 // down to 60
	}
	for i := 290; i < 300; i++ {
		closes[i] = 60 + float64(i-289)*1.5 // bounce to 75
	}

	adj, details := convergenceAdjustment(closes)
	require.True(t, details.Active)
	assert.Less(t, details.Deviation, -convergenceTriggerDeviation)
	assert.Less(t, adj, 0.0, "extension below MA200 reduces the sell score")
	assert.GreaterOrEqual(t, adj, -convergenceMaxAdjustment)
}

func TestConvergenceAdjustment_RequiresFullHistory(t *testing.T) {
	adj, details := convergenceAdjustment(flatCloses(199, 100))
	assert.Equal(t, 0.0, adj)
	assert.False(t, details.Active)
}

func TestCalculateTechnicalScore_BoundedOutput(t *testing.T) {
	// Violent melt-up: every component maxes out, result still <= 100.
	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 100 * math.Pow(1.004, float64(i))
	}

	score, _, err := CalculateTechnicalScore(seriesFromCloses(closes), 200)
	require.NoError(t, err)
	assert.LessOrEqual(t, score, 100.0)
	assert.GreaterOrEqual(t, score, 0.0)
}
