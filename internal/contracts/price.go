package contracts

import "time"

// PricePoint is a single daily close. Points are produced only by the
// acquisition layer and are immutable once returned.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Series is an ordered sequence of price points for one instrument:
// strictly increasing dates, every close positive.
type Series []PricePoint

// Closes returns the close values in order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, p := range s {
		closes[i] = p.Close
	}
	return closes
}

// Last returns the final point of the series.
// The bool result is false for an empty series.
func (s Series) Last() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[len(s)-1], true
}

// SpanDays returns the calendar days between the first and last point.
func (s Series) SpanDays() int {
	if len(s) < 2 {
		return 0
	}
	return int(s[len(s)-1].Date.Sub(s[0].Date).Hours() / 24)
}

// Clone returns an independent copy. Callers that hand a cached series to
// consumers use this to keep cache entries immutable.
func (s Series) Clone() Series {
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// SeriesPoint is a price point decorated with moving averages for
// presentation. A nil MA means the window does not fit yet.
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
	MA20  *float64  `json:"ma20,omitempty"`
	MA60  *float64  `json:"ma60,omitempty"`
	MA200 *float64  `json:"ma200,omitempty"`
}
