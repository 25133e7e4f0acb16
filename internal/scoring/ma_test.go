package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovingAverage_Lengths(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = float64(i + 1)
	}

	for _, window := range []int{1, 5, 20, 50} {
		out, err := MovingAverage(closes, window)
		require.NoError(t, err, "window %d", window)
		assert.Len(t, out, len(closes)-window+1, "window %d", window)
	}
}

func TestMovingAverage_Values(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}

	out, err := MovingAverage(closes, 3)
	require.NoError(t, err)

	assert.Equal(t, []float64{2, 3, 4}, out)
}

func TestMovingAverage_TrailingMean(t *testing.T) {
	closes := []float64{10, 20, 40, 80, 160, 320}

	out, err := MovingAverage(closes, 4)
	require.NoError(t, err)

	require.Len(t, out, 3)
	// Each output is the mean of its trailing slice.
	assert.InDelta(t, (10+20+40+80)/4.0, out[0], 1e-12)
	assert.InDelta(t, (20+40+80+160)/4.0, out[1], 1e-12)
	assert.InDelta(t, (40+80+160+320)/4.0, out[2], 1e-12)
}

func TestMovingAverage_InsufficientData(t *testing.T) {
	_, err := MovingAverage([]float64{1, 2, 3}, 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMovingAverage_InvalidWindow(t *testing.T) {
	_, err := MovingAverage([]float64{1, 2, 3}, 0)
	require.Error(t, err)
}

func TestLatestMovingAverage(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6}

	v, ok := LatestMovingAverage(closes, 3)
	require.True(t, ok)
	assert.InDelta(t, 5.0, v, 1e-12)

	_, ok = LatestMovingAverage(closes, 7)
	assert.False(t, ok, "short data goes inactive instead of failing")
}

func TestClip(t *testing.T) {
	assert.Equal(t, 0.0, clip(-5, 0, 100))
	assert.Equal(t, 100.0, clip(120, 0, 100))
	assert.Equal(t, 42.5, clip(42.5, 0, 100))
}
