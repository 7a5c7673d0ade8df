package policy

import (
	"strings"
	"time"

	"notifyd/internal/clock"
	"notifyd/internal/domain"
	"notifyd/internal/prefs"
)

// Action is the outcome class of a policy evaluation.
type Action string

const (
	// ActionAllow delivers the event with its full profile.
	ActionAllow Action = "allow"
	// ActionAllowSilently delivers a status-only alert without sound or vibration.
	ActionAllowSilently Action = "allow_silently"
	// ActionDefer reschedules the event for a later attempt.
	ActionDefer Action = "defer"
	// ActionSuppress drops the event without delivery or rescheduling.
	ActionSuppress Action = "suppress"
)

// Decision is the result of evaluating one event against device state.
// Params: action, defer reason when deferring, and whether a status-only
// alert accompanies a suppressed popup.
type Decision struct {
	Action         Action
	Reason         domain.DeferReason
	StatusBarAlert bool
}

// AppRef identifies a foreground application entry in a blocking list.
// An entry with an empty Class blocks on package alone; an entry with a
// class blocks only on the exact package+class pair.
type AppRef struct {
	Package string
	Class   string
}

// ParseAppRef parses a "package" or "package/class" blocking-list entry.
// Params: raw entry string.
// Returns: parsed reference; empty Package marks a blank entry.
func ParseAppRef(raw string) AppRef {
	raw = strings.TrimSpace(raw)
	if pkg, class, found := strings.Cut(raw, "/"); found {
		return AppRef{Package: pkg, Class: class}
	}
	return AppRef{Package: raw}
}

// Matches reports whether a running task matches this entry.
// Params: foreground task package and class.
// Returns: true on package match when Class is empty, else on exact pair.
func (r AppRef) Matches(taskPackage, taskClass string) bool {
	if r.Package == "" || r.Package != taskPackage {
		return false
	}
	return r.Class == "" || r.Class == taskClass
}

// BlockLists holds the configured blocking applications per traffic kind.
type BlockLists struct {
	SMS   []AppRef
	Email []AppRef
	Misc  []AppRef
}

// forCategory selects the list consulted for one event category.
// Params: event category.
// Returns: SMS list for sms/mms, Email list for email, Misc otherwise.
func (b BlockLists) forCategory(category domain.Category) []AppRef {
	switch category {
	case domain.CategorySMS, domain.CategoryMMS:
		return b.SMS
	case domain.CategoryEmail:
		return b.Email
	default:
		return b.Misc
	}
}

// DeviceState is the observable device condition at evaluation time.
// Params: call flag, foreground task identity, ringer vibrate-mode flag.
type DeviceState struct {
	CallActive        bool
	ForegroundPackage string
	ForegroundClass   string
	VibrateRingerMode bool
}

// Policy decides whether an event may be delivered now, delivered
// silently, deferred, or suppressed.
type Policy struct {
	prefs  prefs.Store
	clock  clock.Clock
	blocks BlockLists
}

// New creates a blocking policy.
// Params: preference store, clock for quiet-time resolution, blocking lists.
// Returns: ready policy.
func New(store prefs.Store, clk clock.Clock, blocks BlockLists) *Policy {
	return &Policy{prefs: store, clock: clk, blocks: blocks}
}

// InQuietTime reports whether an instant falls in the configured window.
// Params: local instant under test.
// Returns: false when quiet time is disabled or unparseable.
func (p *Policy) InQuietTime(at time.Time) bool {
	window, ok := QuietWindowFromPrefs(p.prefs)
	if !ok {
		return false
	}
	return window.Contains(at)
}

// blockingAppRunning reports whether the foreground task is blocked for
// the category, consulting the session flags first.
// Params: event category and device state.
// Returns: true when a linked-app/quick-reply session is active or the
// foreground task matches the category's blocking list.
func (p *Policy) blockingAppRunning(category domain.Category, state DeviceState) bool {
	if p.prefs.GetBool(prefs.KeyUserInLinkedApp, false) {
		return true
	}
	if p.prefs.GetBool(prefs.KeyUserInQuickReply, false) {
		return true
	}
	if state.ForegroundPackage == "" {
		return false
	}
	for _, entry := range p.blocks.forCategory(category) {
		if entry.Matches(state.ForegroundPackage, state.ForegroundClass) {
			return true
		}
	}
	return false
}

// Evaluate applies the blocking rules to one event category.
// Rule order, first match wins: disabled category, quiet time, active
// call, blocking foreground app, otherwise allow.
// Params: event category and current device state.
// Returns: delivery decision.
func (p *Policy) Evaluate(category domain.Category, state DeviceState) Decision {
	if !p.prefs.GetBool(prefs.KeyAppEnabled, true) {
		return Decision{Action: ActionSuppress}
	}
	if !p.prefs.GetBool(prefs.CategoryKey(category, prefs.KeyPopupEnabled), true) {
		return Decision{Action: ActionSuppress}
	}

	if p.InQuietTime(p.clock.Now()) {
		if p.prefs.GetBool(prefs.KeyRescheduleInQuietTime, false) {
			return Decision{Action: ActionDefer, Reason: domain.DeferReasonQuietTime}
		}
		return Decision{Action: ActionSuppress}
	}

	if state.CallActive {
		if p.prefs.GetBool(prefs.KeyRescheduleInCall, false) {
			return Decision{Action: ActionDefer, Reason: domain.DeferReasonInCall}
		}
		return Decision{Action: ActionAllowSilently}
	}

	if p.blockingAppRunning(category, state) {
		switch p.prefs.GetString(prefs.KeyBlockedAppAction, prefs.BlockedActionReschedule) {
		case prefs.BlockedActionShow:
			return Decision{Action: ActionAllow}
		case prefs.BlockedActionIgnore:
			return Decision{
				Action:         ActionSuppress,
				StatusBarAlert: p.prefs.GetBool(prefs.KeyBlockedStatusAlert, false),
			}
		default:
			return Decision{Action: ActionDefer, Reason: domain.DeferReasonBlockingApp}
		}
	}

	return Decision{Action: ActionAllow}
}

// RescheduleInterval reads the configured retry delay for one defer
// reason. A per-reason key ("reschedule.interval_min.<reason>") overrides
// the shared interval when set.
// Params: defer reason of the pending work.
// Returns: interval duration, minimum one minute.
func (p *Policy) RescheduleInterval(reason domain.DeferReason) time.Duration {
	shared := p.prefs.GetInt(prefs.KeyRescheduleIntervalMin, 5)
	minutes := p.prefs.GetInt(prefs.KeyRescheduleIntervalMin+"."+string(reason), shared)
	if minutes < 1 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}
