package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Evaluate one index and print its score snapshot",
	Long: `Builds the composite score snapshot for one index: live price,
technical/macro/event sub-scores, the total score and its label.

Example:
  go run ./cmd/pulse snapshot --index SP500
  go run ./cmd/pulse snapshot --index sp500_jpy`,
	RunE: runSnapshot,
}

var snapshotIndex string

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringVar(&snapshotIndex, "index", "SP500", "instrument key to evaluate")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	if _, err := app.registry.Lookup(snapshotIndex); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	snap, err := app.builder.Build(ctx, snapshotIndex)
	if err != nil {
		return fmt.Errorf("build snapshot: %w", err)
	}

	printHeader(fmt.Sprintf("Snapshot %s", snap.IndexKey))
	fmt.Printf("  Price      : %.2f (%s)\n", snap.CurrentPrice, snap.PriceSource)
	fmt.Printf("  Technical  : %.1f\n", snap.Scores.Technical)
	fmt.Printf("  Macro      : %.1f\n", snap.Scores.Macro)
	fmt.Printf("  Event adj. : %+.1f\n", snap.Scores.EventAdjustment)
	fmt.Printf("  Total      : %.1f  (%s)\n", snap.Scores.Total, snap.Scores.Label)
	if len(snap.EventDetails) > 0 {
		fmt.Println("  Upcoming events:")
		for _, e := range snap.EventDetails {
			fmt.Printf("    %s  %s (importance %d)\n", e.Date.Format("2006-01-02"), e.Name, e.Importance)
		}
	}
	printFooter()

	return nil
}
