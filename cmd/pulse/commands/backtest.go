package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ysoda/indexpulse/internal/backtest"
)

// backtestCmd groups the backtest subcommands
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay the composite score over history",
}

// backtestRunCmd represents the backtest run command
var backtestRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a long/flat strategy backtest",
	Long: `Replays the composite score day by day over the requested range and
simulates a long/flat strategy against it: liquidate when the score
crosses the sell threshold, buy back in below the buy threshold.

Example:
  go run ./cmd/pulse backtest run --from 2019-01-01 --to 2024-01-01 --cash 1000000
  go run ./cmd/pulse backtest run --from 2019-01-01 --to 2024-01-01 --cash 1000000 --index NIKKEI --buy 35 --sell 85`,
	RunE: runBacktest,
}

var (
	backtestFrom  string
	backtestTo    string
	backtestCash  float64
	backtestIndex string
	backtestBuy   float64
	backtestSell  float64
	backtestMA    int
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	backtestRunCmd.Flags().StringVar(&backtestFrom, "from", "", "start date (YYYY-MM-DD)")
	backtestRunCmd.Flags().StringVar(&backtestTo, "to", "", "end date (YYYY-MM-DD)")
	backtestRunCmd.Flags().Float64Var(&backtestCash, "cash", 1_000_000, "initial cash")
	backtestRunCmd.Flags().StringVar(&backtestIndex, "index", "SP500", "instrument key")
	backtestRunCmd.Flags().Float64Var(&backtestBuy, "buy", 0, "buy threshold (defaults to config)")
	backtestRunCmd.Flags().Float64Var(&backtestSell, "sell", 0, "sell threshold (defaults to config)")
	backtestRunCmd.Flags().IntVar(&backtestMA, "score-ma", 0, "score MA window (defaults to 200)")

	backtestRunCmd.MarkFlagRequired("from")
	backtestRunCmd.MarkFlagRequired("to")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	start, err := time.Parse("2006-01-02", backtestFrom)
	if err != nil {
		return fmt.Errorf("invalid --from date: %w", err)
	}
	end, err := time.Parse("2006-01-02", backtestTo)
	if err != nil {
		return fmt.Errorf("invalid --to date: %w", err)
	}

	cfg := backtest.Config{
		IndexKey:               backtestIndex,
		Start:                  start,
		End:                    end,
		InitialCash:            backtestCash,
		BuyThreshold:           app.cfg.Backtest.BuyThreshold,
		SellThreshold:          app.cfg.Backtest.SellThreshold,
		ScoreWindow:            backtestMA,
		AllowSyntheticFallback: app.cfg.Backtest.AllowFallback,
	}
	if backtestBuy > 0 {
		cfg.BuyThreshold = backtestBuy
	}
	if backtestSell > 0 {
		cfg.SellThreshold = backtestSell
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := app.engine.Run(ctx, cfg)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	printHeader(fmt.Sprintf("Backtest %s  %s ~ %s", cfg.IndexKey, backtestFrom, backtestTo))
	fmt.Printf("  Final value    : %.2f\n", result.FinalValue)
	fmt.Printf("  Buy-and-hold   : %.2f\n", result.BuyAndHoldFinal)
	fmt.Printf("  Total return   : %.2f%%\n", result.TotalReturnPct)
	fmt.Printf("  CAGR           : %.2f%%\n", result.CAGRPct)
	fmt.Printf("  Max drawdown   : %.2f%%\n", result.MaxDrawdownPct)
	fmt.Printf("  Volatility     : %.2f%%\n", result.VolatilityPct)
	fmt.Printf("  Sharpe         : %.2f\n", result.SharpeRatio)
	fmt.Printf("  Trades         : %d\n", result.TradeCount)
	for _, tr := range result.Trades {
		fmt.Printf("    %s  %-4s %6d @ %.2f\n", tr.Date.Format("2006-01-02"), tr.Action, tr.Quantity, tr.Price)
	}
	printFooter()

	return nil
}
