package scoring

import (
	"math"
	"sort"

	"github.com/ysoda/indexpulse/internal/contracts"
)

// Convergence overlay tuning. These thresholds are empirical; they bound
// a small mean-reversion correction on top of the base technical score.
const (
	convergenceTriggerDeviation = 0.15 // |price vs MA200| that activates the overlay
	convergenceFullDanger       = 0.25 // deviation at which danger saturates
	convergenceMaxAdjustment    = 8.0  // score points, either direction
)

// DefaultBaseWindow is the moving-average window the deviation score is
// measured against unless the caller overrides it.
const DefaultBaseWindow = 200

// CalculateTechnicalScore derives the 0-100 technical score from a price
// series: a piecewise deviation score, a trend bonus from MA ordering, and
// the 200-day convergence adjustment. The returned details are diagnostic
// only.
func CalculateTechnicalScore(series contracts.Series, baseWindow int) (float64, contracts.TechnicalDetails, error) {
	if baseWindow <= 0 {
		baseWindow = DefaultBaseWindow
	}

	closes := series.Closes()

	// Every MA the score relies on, deduplicated and ordered.
	windows := uniqueSorted([]int{20, 60, 200, baseWindow})
	maSeries := make(map[int][]float64, len(windows))
	for _, w := range windows {
		ma, err := MovingAverage(closes, w)
		if err != nil {
			return 0, contracts.TechnicalDetails{}, err
		}
		maSeries[w] = ma
	}

	maBase := latest(maSeries[baseWindow])
	currentPrice := closes[len(closes)-1]

	// Trend check uses the ordered MA set: short / mid / long.
	shortW, midW, longW := windows[0], windows[1], windows[len(windows)-1]
	maShortSeries := maSeries[shortW]
	maShort := latest(maShortSeries)
	maMid := latest(maSeries[midW])
	maLong := latest(maSeries[longW])

	d := (currentPrice - maBase) / maBase * 100

	base := baseScore(d)
	trend := trendBonus(maShort, maMid, maLong, maShortSeries)
	raw := clip(base+trend, 0, 100)

	adjustment, conv := convergenceAdjustment(closes)
	score := clip(raw+adjustment, 0, 100)

	details := contracts.TechnicalDetails{
		Deviation:   d,
		Base:        base,
		Trend:       trend,
		Adjustment:  adjustment,
		Raw:         raw,
		BaseWindow:  baseWindow,
		MABase:      maBase,
		MA20:        latest(maSeries[20]),
		MA60:        latest(maSeries[60]),
		MA200:       latest(maSeries[200]),
		Convergence: conv,
	}

	return score, details, nil
}

// baseScore maps the % deviation from the base MA onto 0-100 through
// linear ramps between fixed anchor points.
func baseScore(d float64) float64 {
	switch {
	case d <= -20:
		return 0
	case d < 0:
		return 30 * (d + 20) / 20
	case d < 10:
		return 30 + 20*d/10
	case d < 25:
		return 50 + 30*(d-10)/15
	default:
		return 100
	}
}

// trendBonus rewards a fully-ordered MA stack confirmed by the short MA's
// direction over the last 20 samples.
func trendBonus(maShort, maMid, maLong float64, maShortSeries []float64) float64 {
	if len(maShortSeries) < 20 {
		return 0
	}

	tail := maShortSeries[len(maShortSeries)-20:]
	rising := tail[len(tail)-1] > tail[0]
	falling := tail[len(tail)-1] < tail[0]

	if maShort > maMid && maMid > maLong && rising {
		return 10
	}
	if maShort < maMid && maMid < maLong && falling {
		return -10
	}
	return 0
}

// convergenceAdjustment is the bounded mean-reversion overlay. It only
// activates when price sits in the extreme zone relative to MA200, and it
// scales with how strongly the short MAs already point back toward it.
// Positive values add sell pressure (price extended above MA200);
// negative values reduce it.
func convergenceAdjustment(closes []float64) (float64, contracts.ConvergenceDetails) {
	details := contracts.ConvergenceDetails{}

	if len(closes) < 200 {
		return 0, details
	}

	ma10Series, err := MovingAverage(closes, 10)
	if err != nil {
		return 0, details
	}
	ma10 := latest(ma10Series)
	ma25Series, err := MovingAverage(closes, 25)
	if err != nil {
		return 0, details
	}
	ma25 := latest(ma25Series)
	ma50, ok := LatestMovingAverage(closes, 50)
	if !ok {
		return 0, details
	}
	ma200, ok := LatestMovingAverage(closes, 200)
	if !ok || ma200 == 0 {
		return 0, details
	}

	price := closes[len(closes)-1]
	deviation := (price - ma200) / ma200
	details.Deviation = deviation

	if math.Abs(deviation) < convergenceTriggerDeviation {
		return 0, details
	}
	details.Active = true

	above := deviation > 0

	// Five weighted signals of reversion toward MA200. Each fires when
	// momentum points back from the extreme.
	strength := 0.0
	if (above && ma10 < ma25) || (!above && ma10 > ma25) {
		strength += 30
	}
	if (above && ma25 < ma50) || (!above && ma25 > ma50) {
		strength += 25
	}
	if slopeReverts(ma10Series, above) {
		strength += 20
	}
	if slopeReverts(ma25Series, above) {
		strength += 10
	}
	if (above && price < ma10) || (!above && price > ma10) {
		strength += 15
	}
	details.Strength = strength

	danger := math.Min(math.Abs(deviation)/convergenceFullDanger, 1) * 100
	details.Danger = danger

	adjustment := convergenceMaxAdjustment * (strength / 100) * (danger / 100)
	if !above {
		adjustment = -adjustment
	}

	return adjustment, details
}

// slopeReverts reports whether an MA's 5-bar slope points back toward the
// long average: down when price is extended above, up when below.
func slopeReverts(maSeries []float64, above bool) bool {
	if len(maSeries) < 5 {
		return false
	}
	slope := maSeries[len(maSeries)-1] - maSeries[len(maSeries)-5]
	if above {
		return slope < 0
	}
	return slope > 0
}

func uniqueSorted(windows []int) []int {
	seen := make(map[int]bool, len(windows))
	out := make([]int, 0, len(windows))
	for _, w := range windows {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	sort.Ints(out)
	return out
}

func latest(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}
