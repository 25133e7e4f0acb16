package history

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysoda/indexpulse/internal/contracts"
	"github.com/ysoda/indexpulse/internal/instrument"
)

var testSpec = instrument.Spec{
	Key:        "SP500",
	Symbol:     "^GSPC",
	StartPrice: 4000.0,
	MinPoints:  450,
}

// dailySeries builds consecutive calendar-day points. Short spans keep
// the three-year density rule out of the way.
func dailySeries(closes []float64) contracts.Series {
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	series := make(contracts.Series, len(closes))
	for i, c := range closes {
		series[i] = contracts.PricePoint{Date: base.AddDate(0, 0, i), Close: c}
	}
	return series
}

func levelSeries(n int, level float64) contracts.Series {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = level
	}
	return dailySeries(closes)
}

func TestValidate_AcceptsCleanSeries(t *testing.T) {
	assert.Nil(t, Validate(levelSeries(40, 4100), testSpec))
}

func TestValidate_EmptyHistory(t *testing.T) {
	verr := Validate(nil, testSpec)
	require.NotNil(t, verr)
	assert.Equal(t, "empty_history", verr.Reason)
	assert.Contains(t, verr.Error(), "SP500")
}

func TestValidate_TooFewPoints(t *testing.T) {
	verr := Validate(levelSeries(29, 4100), testSpec)
	require.NotNil(t, verr)
	assert.Equal(t, "too_few_points:29", verr.Reason)
}

func TestValidate_ThinLongSpan(t *testing.T) {
	// 100 points stretched over four years: far below the 450 minimum.
	base := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	series := make(contracts.Series, 100)
	for i := range series {
		series[i] = contracts.PricePoint{Date: base.AddDate(0, 0, i*15), Close: 4100}
	}

	verr := Validate(series, testSpec)
	require.NotNil(t, verr)
	assert.Equal(t, "insufficient_points:100<450", verr.Reason)
}

func TestValidate_InvalidPrices(t *testing.T) {
	t.Run("nan", func(t *testing.T) {
		closes := make([]float64, 40)
		for i := range closes {
			closes[i] = 4100
		}
		closes[20] = math.NaN()

		verr := Validate(dailySeries(closes), testSpec)
		require.NotNil(t, verr)
		assert.Equal(t, "invalid_price:nan", verr.Reason)
	})

	t.Run("non positive", func(t *testing.T) {
		closes := make([]float64, 40)
		for i := range closes {
			closes[i] = 4100
		}
		closes[20] = 0

		verr := Validate(dailySeries(closes), testSpec)
		require.NotNil(t, verr)
		assert.Equal(t, "invalid_price:non_positive:0", verr.Reason)
	})
}

func TestValidate_AbnormalDailyJump(t *testing.T) {
	// 39 flat closes and a final +30% bar.
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 4100
	}
	closes[39] = 4100 * 1.3

	verr := Validate(dailySeries(closes), testSpec)
	require.NotNil(t, verr)
	assert.Contains(t, verr.Reason, "abnormal_daily_jump")
	assert.Equal(t, "abnormal_daily_jump:0.3000", verr.Reason)
}

func TestValidate_SP500Floor(t *testing.T) {
	verr := Validate(levelSeries(40, 2500), testSpec)
	require.NotNil(t, verr)
	assert.Equal(t, "abnormal_sp500_price:2500.00", verr.Reason)
}

func TestValidate_ScaleBounds(t *testing.T) {
	spec := instrument.Spec{Key: "TOPIX", StartPrice: 1500.0, MinPoints: 400}

	t.Run("below floor", func(t *testing.T) {
		verr := Validate(levelSeries(40, 500), spec)
		require.NotNil(t, verr)
		assert.Equal(t, fmt.Sprintf("abnormal_scale_low:%.2f<%.2f", 500.0, 600.0), verr.Reason)
	})

	t.Run("above ceiling", func(t *testing.T) {
		verr := Validate(levelSeries(40, 8000), spec)
		require.NotNil(t, verr)
		assert.Equal(t, fmt.Sprintf("abnormal_scale_high:%.2f>%.2f", 8000.0, 7500.0), verr.Reason)
	})

	t.Run("no reference price skips the band", func(t *testing.T) {
		free := instrument.Spec{Key: "OTHER", MinPoints: 300}
		assert.Nil(t, Validate(levelSeries(40, 8000), free))
	})
}
