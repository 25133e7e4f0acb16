package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ysoda/indexpulse/internal/scheduler"
	"github.com/ysoda/indexpulse/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the snapshot warm scheduler",
	Long: `Runs the background scheduler that periodically rebuilds the score
snapshot for every registered index, keeping caches warm for API
consumers.

Example:
  go run ./cmd/pulse scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	sched := scheduler.New(app.log)

	warmJob := jobs.NewSnapshotWarmJob(app.registry, app.builder, app.cfg.RefreshSchedule, app.log)
	if err := sched.AddJob(warmJob); err != nil {
		return fmt.Errorf("add job: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	// Warm once immediately instead of waiting for the first tick.
	if err := sched.RunJob(warmJob.Name()); err != nil {
		return err
	}

	app.log.Info("Scheduler running, press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return nil
}
