// Package retention prunes the server's per-client sync records. A client
// that stops syncing leaves a client/<id> row behind forever otherwise;
// the purge runs on a cron schedule and drops records idle beyond the
// configured period.
package retention

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"tripsync/pkg/config"
	"tripsync/pkg/logger"
	"tripsync/pkg/protocol"
	"tripsync/pkg/store"
)

const defaultCron = "0 2 * * *"

// Start launches the scheduler when retention is enabled and returns a
// cancel func. Invalid configuration fails startup rather than silently
// never purging.
func Start(ctx context.Context, cfg config.RetentionConfig, st *store.Store) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}
	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = defaultCron
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid retention cron expression: %s", cfg.Cron)
	}
	period, err := time.ParseDuration(cfg.Period)
	if err != nil || period <= 0 {
		return nil, fmt.Errorf("invalid retention period %q", cfg.Period)
	}

	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, period, st)
	logger.Info("retention_enabled", "cron", cronExpr, "period", period.String())
	return cancel, nil
}

// runScheduler sleeps until each next cron tick and purges.
func runScheduler(ctx context.Context, cronExpr string, period time.Duration, st *store.Store) {
	for {
		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(30 * time.Second):
			}
			continue
		}
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		case <-time.After(time.Until(next)):
		}
		if n, err := RunOnce(st, period, time.Now()); err != nil {
			logger.Error("retention_run_failed", "error", err)
		} else if n > 0 {
			logger.Info("retention_purged", "clients", n)
		}
	}
}

// RunOnce drops client records whose last activity predates now-period and
// returns how many were removed.
func RunOnce(st *store.Store, period time.Duration, now time.Time) (int, error) {
	cutoff := now.UTC().Add(-period)
	purged := 0
	err := st.Update(func(tx store.WriteTx) error {
		var stale []string
		if err := tx.Scan(store.ClientPrefix, func(key string, value []byte) error {
			var state protocol.ClientState
			if err := json.Unmarshal(value, &state); err != nil {
				// unreadable record: drop it
				stale = append(stale, key)
				return nil
			}
			seen, err := time.Parse(time.RFC3339, state.LastSeen)
			if err != nil || seen.Before(cutoff) {
				stale = append(stale, key)
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		purged = len(stale)
		return nil
	})
	return purged, err
}
