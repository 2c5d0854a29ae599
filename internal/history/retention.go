package history

import (
	"context"
	"time"
)

// Logger is the logging surface the retention sweep needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger discards everything. Used when no logger is configured.
type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// RunRetention deletes sightings older than olderThan on a fixed interval
// until ctx is cancelled. One sweep runs immediately on start so a restart
// never accumulates an unbounded backlog.
//
// Parameters:
//   - ctx: Stops the sweep when cancelled
//   - interval: Time between sweeps
//   - olderThan: Retention period passed to Prune
//   - logger: Receives sweep outcomes, may be nil
func (j *Journal) RunRetention(ctx context.Context, interval, olderThan time.Duration, logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}

	sweep := func() {
		deleted, err := j.Prune(ctx, olderThan)
		if err != nil {
			logger.Warn("pruning sightings", "error", err)
			return
		}
		if deleted > 0 {
			logger.Info("sightings pruned", "deleted", deleted, "older_than", olderThan)
		}
	}

	sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
