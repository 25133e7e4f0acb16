package contracts

// ScoreBreakdown is the composite sell/hold/buy result.
// Technical and macro are clipped to [0,100]; total is clipped to [0,100]
// after the ultra-long-horizon attenuation.
type ScoreBreakdown struct {
	Technical       float64 `json:"technical"`
	Macro           float64 `json:"macro"`
	EventAdjustment float64 `json:"event_adjustment"`
	Total           float64 `json:"total"`
	Label           string  `json:"label"`
}

// TechnicalDetails is the read-only diagnostic breakdown of the technical
// score. It feeds observability only, never further computation.
type TechnicalDetails struct {
	Deviation   float64            `json:"d"`       // % distance of price from the base MA
	Base        float64            `json:"t_base"`  // piecewise base score
	Trend       float64            `json:"t_trend"` // MA-ordering trend bonus
	Adjustment  float64            `json:"adjustment"`
	Raw         float64            `json:"raw"`
	BaseWindow  int                `json:"base_window"`
	MABase      float64            `json:"ma_base"`
	MA20        float64            `json:"ma20"`
	MA60        float64            `json:"ma60"`
	MA200       float64            `json:"ma200"`
	Convergence ConvergenceDetails `json:"convergence"`
}

// ConvergenceDetails describes the 200-day mean-reversion overlay.
type ConvergenceDetails struct {
	Active    bool    `json:"active"`
	Deviation float64 `json:"deviation"` // price vs MA200, fractional
	Strength  float64 `json:"strength"`  // 0-100
	Danger    float64 `json:"danger"`    // 0-100
}

// MacroDetails carries the percentile positions backing the macro score.
type MacroDetails struct {
	RatePercentile       float64 `json:"rate_percentile"`
	InflationPercentile  float64 `json:"inflation_percentile"`
	VolatilityPercentile float64 `json:"volatility_percentile"`
	RateCurrent          float64 `json:"rate_current"`
	InflationCurrent     float64 `json:"inflation_current"`
	VolatilityCurrent    float64 `json:"volatility_current"`
}

// Snapshot is the caller-facing view of one instrument: live price,
// scores, decorated price series and the per-signal detail records.
type Snapshot struct {
	IndexKey         string           `json:"index_key"`
	CurrentPrice     float64          `json:"current_price"`
	PriceSource      string           `json:"price_source"`
	Scores           ScoreBreakdown   `json:"scores"`
	PriceSeries      []SeriesPoint    `json:"price_series"`
	TechnicalDetails TechnicalDetails `json:"technical_details"`
	MacroDetails     MacroDetails     `json:"macro_details"`
	EventDetails     []Event          `json:"event_details"`
}
