package searchlog

// flusher.go runs the search log maintenance job:
//  1. Re-send entries whose delivery failed when they were recorded
//  2. Drop entries older than the retention window
//
// The job is long-running and context-aware for graceful shutdown. It logs
// failures but never stops the service because of them.

import (
	"context"
	"log/slog"
	"time"
)

// FlushConfig holds configuration for the flusher.
type FlushConfig struct {
	Interval  time.Duration // How often to run (default: 5m)
	Batch     int           // Pending entries per run (default: 50)
	Retention time.Duration // Age after which entries are dropped (default: 30 days)
}

func (c FlushConfig) withDefaults() FlushConfig {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Minute
	}
	if c.Batch <= 0 {
		c.Batch = 50
	}
	if c.Retention <= 0 {
		c.Retention = 30 * 24 * time.Hour
	}
	return c
}

// RunFlusher runs the maintenance job immediately, then every Interval,
// until ctx is cancelled. It always returns nil so it can sit in an errgroup.
func (r *Recorder) RunFlusher(ctx context.Context, cfg FlushConfig) error {
	cfg = cfg.withDefaults()
	slog.Info("search log flusher started",
		"interval", cfg.Interval,
		"batch", cfg.Batch,
		"retention", cfg.Retention,
		"remote", r.Remote(),
	)

	r.runFlushJob(ctx, cfg)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("search log flusher stopped")
			return nil
		case <-ticker.C:
			r.runFlushJob(ctx, cfg)
		}
	}
}

// runFlushJob performs one flush + prune cycle.
func (r *Recorder) runFlushJob(ctx context.Context, cfg FlushConfig) {
	start := time.Now()

	delivered, err := r.Flush(ctx, cfg.Batch)
	if err != nil {
		slog.Error("search log flush failed", "error", err)
	} else if delivered > 0 {
		slog.Info("re-sent pending search log entries", "delivered", delivered)
	}

	pruned, err := r.Prune(ctx, cfg.Retention)
	if err != nil {
		slog.Error("search log prune failed", "error", err)
	} else if pruned > 0 {
		slog.Info("pruned search log entries", "pruned", pruned)
	}

	slog.Debug("search log flush job completed", "duration_ms", time.Since(start).Milliseconds())
}
