package jobs

import (
	"context"
	"fmt"

	"github.com/ysoda/indexpulse/internal/instrument"
	"github.com/ysoda/indexpulse/internal/snapshot"
	"github.com/ysoda/indexpulse/pkg/logger"
)

// SnapshotWarmJob rebuilds the snapshot for every registered instrument
// so interactive requests hit a warm cache.
type SnapshotWarmJob struct {
	registry *instrument.Registry
	builder  *snapshot.Builder
	schedule string
	logger   *logger.Logger
}

// NewSnapshotWarmJob creates a new snapshot warm job.
func NewSnapshotWarmJob(registry *instrument.Registry, builder *snapshot.Builder, schedule string, log *logger.Logger) *SnapshotWarmJob {
	return &SnapshotWarmJob{
		registry: registry,
		builder:  builder,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name.
func (j *SnapshotWarmJob) Name() string {
	return "snapshot_warm"
}

// Schedule returns the configured cron expression.
func (j *SnapshotWarmJob) Schedule() string {
	return j.schedule
}

// Run rebuilds all snapshots. A failing instrument does not stop the
// rest; the job fails only when every instrument fails.
func (j *SnapshotWarmJob) Run(ctx context.Context) error {
	keys := j.registry.Keys()

	failures := 0
	for _, key := range keys {
		if _, err := j.builder.Build(ctx, key); err != nil {
			failures++
			j.logger.WithError(err).WithField("index", key).Warn("Snapshot warm failed")
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"total":    len(keys),
		"failures": failures,
	}).Info("Snapshot warm pass complete")

	if failures == len(keys) && len(keys) > 0 {
		return fmt.Errorf("all %d snapshot warms failed", failures)
	}
	return nil
}
