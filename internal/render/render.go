package render

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"notifyd/internal/config"
	"notifyd/internal/domain"
	"notifyd/internal/permanent"
)

// Renderer turns delivery profiles into user-visible alerts on some
// presentation surface.
// Params: fully resolved profiles and category-level clear requests.
// Returns: transport errors; permanent-marked errors must not be retried.
type Renderer interface {
	Name() string
	Show(ctx context.Context, profile domain.DeliveryProfile) error
	Clear(ctx context.Context, category domain.Category) error
	ClearAll(ctx context.Context) error
}

// LogRenderer records alerts on the structured log, used as the default
// surface and as a diagnostics tap next to remote renderers.
// Params: destination logger.
// Returns: renderer that never fails.
type LogRenderer struct {
	logger *slog.Logger
}

// NewLogRenderer creates the log-backed renderer.
// Params: destination logger.
// Returns: ready renderer.
func NewLogRenderer(logger *slog.Logger) *LogRenderer {
	return &LogRenderer{logger: logger}
}

// Name returns the renderer key for diagnostics.
// Params: none.
// Returns: "log".
func (r *LogRenderer) Name() string {
	return "log"
}

// Show records one alert.
// Params: resolved profile.
// Returns: nil.
func (r *LogRenderer) Show(_ context.Context, profile domain.DeliveryProfile) error {
	r.logger.Info("alert shown",
		slog.String("category", string(profile.Category)),
		slog.String("ticker", profile.TickerText),
		slog.String("icon", profile.IconRef),
		slog.Bool("sound", profile.SoundRef != ""),
		slog.Bool("vibrate", profile.Vibration != nil || profile.UseDefaults),
		slog.Bool("led", profile.LEDEnabled))
	return nil
}

// Clear records one category-level clear.
// Params: cleared category.
// Returns: nil.
func (r *LogRenderer) Clear(_ context.Context, category domain.Category) error {
	r.logger.Info("alert cleared", slog.String("category", string(category)))
	return nil
}

// ClearAll records a full clear.
// Params: none.
// Returns: nil.
func (r *LogRenderer) ClearAll(_ context.Context) error {
	r.logger.Info("all alerts cleared")
	return nil
}

// Multi fans one renderer call out to several surfaces.
// Params: ordered renderer list.
// Returns: renderer combining all configured surfaces.
type Multi struct {
	renderers []Renderer
}

// NewMulti creates a fan-out renderer.
// Params: configured surfaces in delivery order.
// Returns: combined renderer.
func NewMulti(renderers ...Renderer) *Multi {
	return &Multi{renderers: renderers}
}

// Name returns the joined surface names.
// Params: none.
// Returns: "a+b" style key.
func (m *Multi) Name() string {
	names := make([]string, 0, len(m.renderers))
	for _, renderer := range m.renderers {
		names = append(names, renderer.Name())
	}
	return strings.Join(names, "+")
}

// retryableShowError hides the permanent markers of individual surfaces
// inside a joined fan-out failure. Without it errors.As would find a
// permanent child and stop retries that could still recover another
// surface.
type retryableShowError struct {
	err error
}

// Error returns the joined message.
// Params: none.
// Returns: string representation.
func (e retryableShowError) Error() string {
	return e.err.Error()
}

// Show delivers to every surface and joins their errors.
// Params: resolved profile.
// Returns: joined error; permanent only when every failure is permanent.
func (m *Multi) Show(ctx context.Context, profile domain.DeliveryProfile) error {
	var errs []error
	retryable := false
	for _, renderer := range m.renderers {
		if err := renderer.Show(ctx, profile); err != nil {
			errs = append(errs, err)
			if !permanent.Is(err) {
				retryable = true
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	joined := errors.Join(errs...)
	if !retryable {
		return permanent.Mark(joined)
	}
	return retryableShowError{err: joined}
}

// Clear clears one category on every surface.
// Params: cleared category.
// Returns: joined error.
func (m *Multi) Clear(ctx context.Context, category domain.Category) error {
	var errs []error
	for _, renderer := range m.renderers {
		if err := renderer.Clear(ctx, category); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ClearAll clears every surface.
// Params: none.
// Returns: joined error.
func (m *Multi) ClearAll(ctx context.Context) error {
	var errs []error
	for _, renderer := range m.renderers {
		if err := renderer.ClearAll(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Retrying wraps a renderer with a bounded backoff retry policy for
// Show calls. Permanent-marked errors stop the loop immediately.
// Params: wrapped renderer, retry settings, and logger.
// Returns: renderer with transport-level retries.
type Retrying struct {
	inner  Renderer
	retry  config.RenderRetry
	logger *slog.Logger
}

// NewRetrying wraps a renderer with the configured retry policy.
// Params: wrapped renderer, retry settings, and logger.
// Returns: retrying renderer.
func NewRetrying(inner Renderer, retry config.RenderRetry, logger *slog.Logger) *Retrying {
	return &Retrying{inner: inner, retry: retry, logger: logger}
}

// Name returns the wrapped renderer's key.
// Params: none.
// Returns: inner name.
func (r *Retrying) Name() string {
	return r.inner.Name()
}

// Show delivers one alert with the configured retry policy.
// Params: resolved profile.
// Returns: final error after retries or a permanent error unchanged.
func (r *Retrying) Show(ctx context.Context, profile domain.DeliveryProfile) error {
	if !r.retry.Enabled {
		return r.inner.Show(ctx, profile)
	}

	attempt := 0
	backoff := time.Duration(r.retry.InitialMS) * time.Millisecond
	maxBackoff := time.Duration(r.retry.MaxMS) * time.Millisecond
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		attempt++
		err := r.inner.Show(ctx, profile)
		if err == nil {
			if attempt > 1 && r.logger != nil {
				r.logger.Info("render recovered after retries",
					slog.String("renderer", r.inner.Name()),
					slog.Int("attempt", attempt))
			}
			return nil
		}
		if permanent.Is(err) {
			return err
		}
		if r.logger != nil {
			r.logger.Warn("render attempt failed",
				slog.String("renderer", r.inner.Name()),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
		}
		if r.retry.MaxAttempts > 0 && attempt >= r.retry.MaxAttempts {
			return err
		}

		if timer == nil {
			timer = time.NewTimer(backoff)
		} else {
			timer.Reset(backoff)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if strings.EqualFold(r.retry.Backoff, "exponential") {
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}

// Clear forwards without retries; a missed clear self-heals on the next
// delivery cycle.
// Params: cleared category.
// Returns: inner error.
func (r *Retrying) Clear(ctx context.Context, category domain.Category) error {
	return r.inner.Clear(ctx, category)
}

// ClearAll forwards without retries.
// Params: none.
// Returns: inner error.
func (r *Retrying) ClearAll(ctx context.Context) error {
	return r.inner.ClearAll(ctx)
}
