// Package retention purges threads that have been idle beyond the
// configured period. The transcript protocol itself never deletes;
// retention is a store policy layered on top.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"componentdb/pkg/config"
	"componentdb/pkg/logger"
	"componentdb/pkg/metrics"
	"componentdb/pkg/store"
)

// Start starts the retention scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg config.RetentionConfig) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	period, err := config.ParsePeriod(cfg.Period)
	if err != nil {
		logger.Error("retention_invalid_period", "period", cfg.Period, "error", err)
		return nil, err
	}

	// default daily @02:00
	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid retention cron expression: %s", cfg.Cron)
	}

	logger.Info("retention_enabled", "cron", cronExpr, "period", cfg.Period, "dry_run", cfg.DryRun)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, period, cfg.DryRun)
	return cancel, nil
}

// runScheduler sleeps until the next cron tick and triggers a run.
func runScheduler(ctx context.Context, cronExpr string, period time.Duration, dryRun bool) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := RunOnce(period, dryRun); err != nil {
				logger.Error("retention_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}

// RunOnce purges every thread whose last activity is older than
// period. Exposed for admin triggers and tests.
func RunOnce(period time.Duration, dryRun bool) error {
	threads, err := store.ListThreads()
	if err != nil {
		return err
	}
	cutoff := time.Now().UTC().Add(-period).UnixNano()
	purged := 0
	for _, th := range threads {
		last := th.UpdatedTS
		if last == 0 {
			last = th.CreatedTS
		}
		if last >= cutoff {
			continue
		}
		if dryRun {
			logger.Info("retention_would_purge", "thread", th.ID)
			continue
		}
		if err := store.PurgeThread(th.ID); err != nil {
			logger.Error("retention_purge_failed", "thread", th.ID, "error", err)
			continue
		}
		metrics.ThreadsPurged.Inc()
		purged++
	}
	logger.Info("retention_run_complete", "candidates", len(threads), "purged", purged)
	return nil
}
