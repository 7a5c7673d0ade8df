package sched

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"notifyd/internal/clock"
	"notifyd/internal/domain"
	"notifyd/internal/store"
)

// FireFunc receives a due deferred-work entry for re-ingestion.
type FireFunc func(ctx context.Context, work domain.DeferredWork)

// Scheduler owns the set of pending deferred-work entries. It persists
// every entry before arming its timer so retries survive a restart.
// Params: work store, timer facility, clock, logger, and fire callback.
// Returns: deferred-retry coordinator.
type Scheduler struct {
	store  store.Store
	timer  Timer
	clock  clock.Clock
	logger *slog.Logger
	onFire FireFunc
}

// New creates a scheduler.
// Params: work store, timer, clock, logger, and fire callback.
// Returns: ready scheduler.
func New(workStore store.Store, timer Timer, clk clock.Clock, logger *slog.Logger, onFire FireFunc) *Scheduler {
	return &Scheduler{
		store:  workStore,
		timer:  timer,
		clock:  clk,
		logger: logger,
		onFire: onFire,
	}
}

// ScheduleRetry defers one event to a later attempt.
// The attempt counter continues from the event's reschedule count, so a
// duplicate deferral of the same attempt replaces the pending entry
// instead of stacking a second wake.
// Params: event under deferral, defer reason, and retry delay.
// Returns: persisted work entry or store error.
func (s *Scheduler) ScheduleRetry(ctx context.Context, event domain.Event, reason domain.DeferReason, delay time.Duration) (domain.DeferredWork, error) {
	work := domain.DeferredWork{
		Event:   event,
		FireAt:  s.clock.Now().Add(delay),
		Attempt: event.Reschedules + 1,
		Reason:  reason,
	}
	if err := s.store.Put(ctx, work); err != nil {
		return domain.DeferredWork{}, err
	}
	s.timer.ScheduleOneShot(work.Key(), work.FireAt)
	s.logger.Info("retry scheduled",
		slog.String("key", work.Key()),
		slog.String("reason", string(reason)),
		slog.Time("fire_at", work.FireAt))
	return work, nil
}

// Fire handles one due wake: the entry is removed first so a fire is
// consumed exactly once, then handed to the pipeline for re-evaluation.
// Params: work key from the timer facility.
// Returns: nothing; a missing key means the work was cancelled.
func (s *Scheduler) Fire(ctx context.Context, key string) {
	work, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("load due work", slog.String("key", key), slog.Any("error", err))
		}
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Error("delete due work", slog.String("key", key), slog.Any("error", err))
	}
	work.Event.Reschedules = work.Attempt
	s.onFire(ctx, work)
}

// CancelCategory drops all pending work for one category, used when the
// user clears that category's alerts.
// Params: category whose retries become pointless.
// Returns: first store error encountered; cancellation is best-effort.
func (s *Scheduler) CancelCategory(ctx context.Context, category domain.Category) error {
	all, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	prefix := string(category) + "."
	var firstErr error
	for _, work := range all {
		key := work.Key()
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		s.timer.Cancel(key)
		if err := s.store.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Restore re-arms timers for persisted work after a restart. Entries
// already past due fire immediately instead of being dropped.
// Params: none beyond context.
// Returns: store list error; individual re-arms cannot fail.
func (s *Scheduler) Restore(ctx context.Context) error {
	all, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	for _, work := range all {
		fireAt := work.FireAt
		if !fireAt.After(now) {
			fireAt = now
		}
		s.timer.ScheduleOneShot(work.Key(), fireAt)
	}
	if len(all) > 0 {
		s.logger.Info("deferred work restored", slog.Int("entries", len(all)))
	}
	return nil
}
