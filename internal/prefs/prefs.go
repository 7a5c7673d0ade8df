package prefs

import (
	"strconv"
	"strings"
	"sync"

	"notifyd/internal/domain"
)

// Global preference keys shared by every category.
const (
	// KeyAppEnabled gates the whole pipeline.
	KeyAppEnabled = "app_enabled"
	// KeyQuietTimeEnabled gates the quiet-time window check.
	KeyQuietTimeEnabled = "quiet_time.enabled"
	// KeyQuietTimeStart holds the window start as "HH|MM".
	KeyQuietTimeStart = "quiet_time.start"
	// KeyQuietTimeStop holds the window stop as "HH|MM".
	KeyQuietTimeStop = "quiet_time.stop"
	// KeyQuietTimeDays selects everyday/weekend/weekday window days.
	KeyQuietTimeDays = "quiet_time.days"
	// KeyRescheduleInQuietTime enables deferral instead of suppression in quiet time.
	KeyRescheduleInQuietTime = "quiet_time.reschedule"
	// KeyRescheduleInCall enables deferral instead of silent delivery during calls.
	KeyRescheduleInCall = "in_call.reschedule"
	// KeyRescheduleIntervalMin holds the retry interval in minutes.
	KeyRescheduleIntervalMin = "reschedule.interval_min"
	// KeyBlockedAppAction selects show/reschedule/ignore for blocking apps.
	KeyBlockedAppAction = "blocking_app.action"
	// KeyBlockedStatusAlert shows a status-only alert when a popup is blocked.
	KeyBlockedStatusAlert = "blocking_app.status_alert"
	// KeyUserInLinkedApp is a session flag set while the user is in a linked app.
	KeyUserInLinkedApp = "session.user_in_linked_app"
	// KeyUserInQuickReply is a session flag set while the user is in quick reply.
	KeyUserInQuickReply = "session.user_in_quick_reply"
)

// Quiet-time day window values.
const (
	// QuietDaysEveryday applies the window on every weekday.
	QuietDaysEveryday = "everyday"
	// QuietDaysWeekend applies the window on Saturday/Sunday only.
	QuietDaysWeekend = "weekend"
	// QuietDaysWeekday applies the window on Monday..Friday only.
	QuietDaysWeekday = "weekday"
)

// Blocking-app action values.
const (
	// BlockedActionShow delivers normally while a blocking app runs.
	BlockedActionShow = "show"
	// BlockedActionReschedule defers delivery while a blocking app runs.
	BlockedActionReschedule = "reschedule"
	// BlockedActionIgnore drops the popup while a blocking app runs.
	BlockedActionIgnore = "ignore"
)

// Per-category preference key suffixes under "<category>." prefixes.
const (
	// KeyPopupEnabled gates popup delivery for one category.
	KeyPopupEnabled = "popup_enabled"
	// KeyStatusBarEnabled gates the persistent status alert for one category.
	KeyStatusBarEnabled = "status_bar_enabled"
	// KeySound holds the ringtone reference; empty disables sound.
	KeySound = "sound"
	// KeyInCallSound enables the in-call sound override.
	KeyInCallSound = "in_call_sound"
	// KeyVibrateMode selects never/always/when_vibrate_mode.
	KeyVibrateMode = "vibrate_mode"
	// KeyInCallVibrate enables the in-call vibrate override.
	KeyInCallVibrate = "in_call_vibrate"
	// KeyVibratePattern selects a named preset or "custom".
	KeyVibratePattern = "vibrate_pattern"
	// KeyVibratePatternCustom holds a comma-separated millisecond list.
	KeyVibratePatternCustom = "vibrate_pattern_custom"
	// KeyLEDEnabled gates LED effects for one category.
	KeyLEDEnabled = "led_enabled"
	// KeyLEDColor selects a named color preset or "custom".
	KeyLEDColor = "led_color"
	// KeyLEDColorCustom holds a hex color string.
	KeyLEDColorCustom = "led_color_custom"
	// KeyLEDPattern selects a named on/off preset or "custom".
	KeyLEDPattern = "led_pattern"
	// KeyLEDPatternCustom holds "on_ms,off_ms".
	KeyLEDPatternCustom = "led_pattern_custom"
	// KeyIcon selects a named icon preset.
	KeyIcon = "icon"
)

// Vibrate mode values.
const (
	// VibrateNever disables vibration.
	VibrateNever = "never"
	// VibrateAlways vibrates on every delivery.
	VibrateAlways = "always"
	// VibrateWhenVibrateMode vibrates only while the ringer is in vibrate mode.
	VibrateWhenVibrateMode = "when_vibrate_mode"
)

// CategoryKey builds the full preference key for one category setting.
// Params: category and per-category key suffix.
// Returns: "<category>.<suffix>" preference key.
func CategoryKey(category domain.Category, suffix string) string {
	return string(category) + "." + suffix
}

// Store provides read access to layered user preferences with typed defaults.
// The pipeline never writes settings except the two session flags.
type Store interface {
	GetString(key, fallback string) string
	GetBool(key string, fallback bool) bool
	GetInt(key string, fallback int) int
	SetSessionFlag(key string, value bool)
}

// MemoryStore keeps preference values in process memory.
// Params: value map guarded by RW mutex.
// Returns: store implementation backed by a seed snapshot.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates a preference store from a seed snapshot.
// Params: initial key/value pairs (may be nil).
// Returns: initialized store.
func NewMemoryStore(seed map[string]string) *MemoryStore {
	values := make(map[string]string, len(seed))
	for key, value := range seed {
		values[key] = value
	}
	return &MemoryStore{values: values}
}

// Replace swaps the whole value snapshot, preserving session flags.
// Params: new key/value seed from a reloaded configuration.
// Returns: store updated in place.
func (s *MemoryStore) Replace(seed map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]string, len(seed)+2)
	for key, value := range seed {
		next[key] = value
	}
	for _, flag := range []string{KeyUserInLinkedApp, KeyUserInQuickReply} {
		if value, ok := s.values[flag]; ok {
			next[flag] = value
		}
	}
	s.values = next
}

// GetString reads one string preference.
// Params: key and fallback default.
// Returns: stored value or fallback when absent.
func (s *MemoryStore) GetString(key, fallback string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if value, ok := s.values[key]; ok {
		return value
	}
	return fallback
}

// GetBool reads one boolean preference.
// Params: key and fallback default.
// Returns: parsed value or fallback when absent/unparseable.
func (s *MemoryStore) GetBool(key string, fallback bool) bool {
	s.mu.RLock()
	raw, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return parsed
}

// GetInt reads one integer preference.
// Params: key and fallback default.
// Returns: parsed value or fallback when absent/unparseable.
func (s *MemoryStore) GetInt(key string, fallback int) int {
	s.mu.RLock()
	raw, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return parsed
}

// SetSessionFlag writes one of the two session flags.
// Params: session flag key and value.
// Returns: non-session keys are ignored to keep the store read-only.
func (s *MemoryStore) SetSessionFlag(key string, value bool) {
	if key != KeyUserInLinkedApp && key != KeyUserInQuickReply {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = strconv.FormatBool(value)
}
