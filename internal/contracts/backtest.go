package contracts

import "time"

// TradeAction is the direction of a simulated trade.
type TradeAction string

const (
	TradeBuy  TradeAction = "BUY"
	TradeSell TradeAction = "SELL"
)

// TradeRecord is one simulated fill. Records are created only inside the
// backtest loop and are append-only within a run.
type TradeRecord struct {
	Action   TradeAction `json:"action"`
	Date     time.Time   `json:"date"`
	Quantity int64       `json:"quantity"`
	Price    float64     `json:"price"`
}

// ValuePoint is one day of a portfolio value curve.
type ValuePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// BacktestResult summarizes one simulation run. It is constructed once per
// run and never mutated after return.
type BacktestResult struct {
	FinalValue      float64 `json:"final_value"`
	BuyAndHoldFinal float64 `json:"buy_and_hold_final"`
	TotalReturnPct  float64 `json:"total_return_pct"`
	CAGRPct         float64 `json:"cagr_pct"`
	MaxDrawdownPct  float64 `json:"max_drawdown_pct"`
	VolatilityPct   float64 `json:"volatility_pct"`
	SharpeRatio     float64 `json:"sharpe_ratio"`

	TradeCount       int           `json:"trade_count"`
	Trades           []TradeRecord `json:"trades"`
	PortfolioHistory []ValuePoint  `json:"portfolio_history"`
	BuyHoldHistory   []ValuePoint  `json:"buy_hold_history"`
}
