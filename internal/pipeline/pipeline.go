package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"notifyd/internal/domain"
	"notifyd/internal/permanent"
	"notifyd/internal/policy"
	"notifyd/internal/profile"
	"notifyd/internal/render"
)

// StockIndicatorClearer clears the platform's own missed-call indicator
// the moment a missed-call alert is shown, so the native entry never
// duplicates the delivered one.
type StockIndicatorClearer interface {
	ClearMissedCallIndicator(ctx context.Context)
}

// deliverMode selects how effects are treated for one delivery.
type deliverMode int

const (
	// deliverFull keeps the resolved profile untouched.
	deliverFull deliverMode = iota
	// deliverInCall trusts the resolver's in-call narrowing: enabled
	// overrides keep sound via the playback route and vibration as a
	// one-shot effect, disabled overrides arrive already stripped.
	deliverInCall
	// deliverStatusOnly strips audible and tactile effects outright,
	// used for the blocked status-only alert and the deferral-failure
	// fallback.
	deliverStatusOnly
)

// Deferrer schedules one event for a later delivery attempt.
type Deferrer interface {
	ScheduleRetry(ctx context.Context, event domain.Event, reason domain.DeferReason, delay time.Duration) (domain.DeferredWork, error)
	CancelCategory(ctx context.Context, category domain.Category) error
}

// categoryState is one entry of the active alert set. The lock covers
// the read-modify-write of the counter together with the decision to
// clear the platform alert, so a decrement to zero clears exactly once.
type categoryState struct {
	mu    sync.Mutex
	count int
}

// Pipeline orchestrates event intake: policy evaluation, profile
// resolution, rendering, deferral, and per-category alert accounting.
// Params: policy, resolver, renderer, deferrer, device source, guard.
// Returns: the delivery coordinator.
type Pipeline struct {
	policy   *policy.Policy
	resolver *profile.Resolver
	renderer render.Renderer
	deferrer Deferrer
	device   *DeviceStateSource
	guard    Guard
	stock    StockIndicatorClearer
	logger   *slog.Logger

	active map[domain.Category]*categoryState
}

// New creates the pipeline with one state slot per category.
// Params: collaborators; stock may be nil when no platform indicator exists.
// Returns: ready pipeline.
func New(
	pol *policy.Policy,
	resolver *profile.Resolver,
	renderer render.Renderer,
	deferrer Deferrer,
	device *DeviceStateSource,
	guard Guard,
	stock StockIndicatorClearer,
	logger *slog.Logger,
) *Pipeline {
	active := make(map[domain.Category]*categoryState, len(domain.Categories()))
	for _, category := range domain.Categories() {
		active[category] = &categoryState{}
	}
	return &Pipeline{
		policy:   pol,
		resolver: resolver,
		renderer: renderer,
		deferrer: deferrer,
		device:   device,
		guard:    guard,
		stock:    stock,
		logger:   logger,
		active:   active,
	}
}

// Ingest runs one event through policy, resolution, and delivery.
// Each call is an independent unit of work; no category's delivery
// blocks another's.
// Params: normalized event.
// Returns: terminal outcome and error only on deferral persistence failure.
func (p *Pipeline) Ingest(ctx context.Context, event domain.Event) (domain.Outcome, error) {
	release := p.guard.Acquire()
	defer release()

	if err := event.Validate(); err != nil {
		p.logger.Warn("event rejected", slog.Any("error", err))
		return domain.OutcomeSuppressed, nil
	}

	state := p.device.Snapshot()
	decision := p.policy.Evaluate(event.Category, state)

	switch decision.Action {
	case policy.ActionDefer:
		work, err := p.deferrer.ScheduleRetry(ctx, event, decision.Reason, p.policy.RescheduleInterval(decision.Reason))
		if err != nil {
			p.logger.Error("defer failed, delivering silently",
				slog.String("category", string(event.Category)),
				slog.Any("error", err))
			return p.deliver(ctx, event, state, deliverStatusOnly)
		}
		p.logger.Info("event deferred",
			slog.String("key", work.Key()),
			slog.String("reason", string(decision.Reason)))
		return domain.OutcomeDeferred, nil

	case policy.ActionSuppress:
		if decision.StatusBarAlert {
			return p.deliver(ctx, event, state, deliverStatusOnly)
		}
		return domain.OutcomeSuppressed, nil

	case policy.ActionAllowSilently:
		return p.deliver(ctx, event, state, deliverInCall)

	default:
		return p.deliver(ctx, event, state, deliverFull)
	}
}

// deliver resolves the profile and shows the alert. A shown missed-call
// alert also clears the platform's own indicator right away.
// Params: event, device state, and effect treatment mode.
// Returns: Delivered/SilentlyDelivered on success, Suppressed when the
// profile resolves to nil or rendering permanently fails.
func (p *Pipeline) deliver(ctx context.Context, event domain.Event, state policy.DeviceState, mode deliverMode) (domain.Outcome, error) {
	resolved := p.resolver.Resolve(event, profile.Conditions{
		CallActive:        state.CallActive,
		VibrateRingerMode: state.VibrateRingerMode,
	})
	if resolved == nil {
		p.logger.Info("nothing to render", slog.String("category", string(event.Category)))
		return domain.OutcomeSuppressed, nil
	}

	shown := *resolved
	if mode == deliverStatusOnly {
		shown = shown.Silence()
	}

	if err := p.show(ctx, shown); err != nil {
		p.logger.Warn("render failed", slog.String("category", string(event.Category)), slog.Any("error", err))
		return domain.OutcomeSuppressed, nil
	}

	if event.Category == domain.CategoryMissedCall && p.stock != nil {
		p.stock.ClearMissedCallIndicator(ctx)
	}

	if mode == deliverFull {
		return domain.OutcomeDelivered, nil
	}
	return domain.OutcomeSilentlyDelivered, nil
}

// show renders one profile, retrying once with effect defaults when the
// renderer rejects custom sound/vibration/LED selections.
// Params: profile ready for display.
// Returns: nil on success and the counter incremented under the
// category lock.
func (p *Pipeline) show(ctx context.Context, shown domain.DeliveryProfile) error {
	state := p.active[shown.Category]
	state.mu.Lock()
	defer state.mu.Unlock()

	err := p.renderer.Show(ctx, shown)
	if err != nil && permanent.Is(err) {
		fallback := shown.Fallback()
		p.logger.Warn("retrying with default effects",
			slog.String("category", string(shown.Category)),
			slog.Any("error", err))
		err = p.renderer.Show(ctx, fallback)
	}
	if err != nil {
		return err
	}
	state.count++
	return nil
}

// Dismiss removes one alert of a category. When the count reaches zero
// the platform alert is cleared exactly once and pending retries for
// the category are dropped.
// Params: dismissed category.
// Returns: renderer clear error; the count is adjusted regardless.
func (p *Pipeline) Dismiss(ctx context.Context, category domain.Category) error {
	if !domain.ValidCategory(category) {
		return nil
	}
	state := p.active[category]
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.count == 0 {
		return nil
	}
	state.count--
	if state.count > 0 {
		return nil
	}
	return p.clearLocked(ctx, category)
}

// DismissAll removes every active alert across categories.
// Params: none.
// Returns: first clear error; every category is reset regardless.
func (p *Pipeline) DismissAll(ctx context.Context) error {
	var firstErr error
	for _, category := range domain.Categories() {
		state := p.active[category]
		state.mu.Lock()
		if state.count > 0 {
			state.count = 0
			if err := p.clearLocked(ctx, category); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		state.mu.Unlock()
	}
	if err := p.renderer.ClearAll(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// ActiveCount reports the current alert count of one category.
// Params: category under query.
// Returns: number of undismissed alerts.
func (p *Pipeline) ActiveCount(category domain.Category) int {
	state, ok := p.active[category]
	if !ok {
		return 0
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.count
}

// clearLocked clears one category's platform alert and its pending
// retries. Callers hold the category lock.
// Params: cleared category.
// Returns: renderer clear error.
func (p *Pipeline) clearLocked(ctx context.Context, category domain.Category) error {
	if err := p.deferrer.CancelCategory(ctx, category); err != nil {
		p.logger.Warn("cancel pending retries",
			slog.String("category", string(category)),
			slog.Any("error", err))
	}
	return p.renderer.Clear(ctx, category)
}

// OnFire re-submits deferred work into the intake path. The guard is
// held across the whole re-evaluation, mirroring the intake path.
// Params: due work entry from the scheduler.
// Returns: nothing; outcomes are logged.
func (p *Pipeline) OnFire(ctx context.Context, work domain.DeferredWork) {
	outcome, err := p.Ingest(ctx, work.Event)
	if err != nil {
		p.logger.Error("deferred re-ingest failed",
			slog.String("key", work.Key()),
			slog.Any("error", err))
		return
	}
	p.logger.Info("deferred work fired",
		slog.String("key", work.Key()),
		slog.String("outcome", string(outcome)))
}
