package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetplanner/internal/amqp"
	"budgetplanner/internal/core"
	applog "budgetplanner/internal/log"
)

// RunStats summarizes one pass over all users.
type RunStats struct {
	Users   int
	Changed int
	Failed  int
}

// RecurringProcessor materializes preset transactions in the background so
// that months are complete even before their owner opens them.
type RecurringProcessor struct {
	planner     *PlannerService
	users       StateStore
	concurrency int
	now         func() time.Time
}

func NewRecurringProcessor(planner *PlannerService, users StateStore, concurrency int) *RecurringProcessor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &RecurringProcessor{
		planner:     planner,
		users:       users,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// ProcessAll materializes the current month of every user. A failing user
// is logged and counted; only a cancelled context aborts the pass.
func (p *RecurringProcessor) ProcessAll(ctx context.Context) (RunStats, error) {
	ids, err := p.users.ListUserIDs(ctx)
	if err != nil {
		return RunStats{}, fmt.Errorf("list users: %w", err)
	}

	now := p.now()
	key := core.NewMonthKey(now.Year(), now.Month())
	var changed, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ok, version, err := p.planner.Materialize(gctx, id, key)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed.Add(1)
				slog.ErrorContext(gctx, "Failed to materialize presets", applog.NewFields().
					WithUserMonth(id, key).
					WithError(err).
					WithErrorType(failureKind(err)).
					ToSlice()...)
				return nil
			}
			if ok {
				changed.Add(1)
				slog.InfoContext(gctx, "Preset transactions materialized",
					"user_id", id, "month", key, "version", version)
			}
			return nil
		})
	}

	stats := RunStats{Users: len(ids)}
	err = g.Wait()
	stats.Changed = int(changed.Load())
	stats.Failed = int(failed.Load())
	if err != nil {
		return stats, err
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"month", key, "users", stats.Users, "changed", stats.Changed, "failed", stats.Failed)
	return stats, nil
}

// HandleStateSaved materializes the month named by msg, or the current
// month when the message names none. A returned error requeues msg.
func (p *RecurringProcessor) HandleStateSaved(ctx context.Context, msg *amqp.StateSavedMessage) error {
	key := msg.Month
	if key == "" {
		now := p.now()
		key = core.NewMonthKey(now.Year(), now.Month())
	}
	if _, err := core.ParseMonthKey(string(key)); err != nil {
		slog.WarnContext(ctx, "Ignoring state saved event with invalid month",
			"user_id", msg.UserID, "month", msg.Month)
		return nil
	}

	changed, version, err := p.planner.Materialize(ctx, msg.UserID, key)
	if err != nil {
		return fmt.Errorf("materialize %s for %s: %w", key, msg.UserID, err)
	}
	slog.DebugContext(ctx, "State saved event handled",
		"user_id", msg.UserID, "month", key, "event_version", msg.Version,
		"version", version, "changed", changed)
	return nil
}

// Run calls ProcessAll immediately and then every interval until ctx is
// done.
func (p *RecurringProcessor) Run(ctx context.Context, interval time.Duration) {
	p.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *RecurringProcessor) runOnce(ctx context.Context) {
	if _, err := p.ProcessAll(ctx); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Recurring processing failed", "error", err)
	}
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, ErrStateBusy):
		return "conflict"
	case errors.Is(err, core.ErrInvalidMonthKey):
		return "validation"
	default:
		return "storage"
	}
}
