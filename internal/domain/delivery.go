package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DeliveryProfile carries fully resolved rendering instructions for one alert.
// Params: icon/sound/vibration/LED selections and rendered text fields.
// Returns: renderer input for one delivery attempt.
type DeliveryProfile struct {
	Category    Category `json:"category"`
	IconRef     string   `json:"icon_ref"`
	SoundRef    string   `json:"sound_ref,omitempty"`
	Vibration   []int    `json:"vibration,omitempty"`
	UseDefaults bool     `json:"use_defaults,omitempty"`
	LEDEnabled  bool     `json:"led_enabled,omitempty"`
	LEDColor    uint32   `json:"led_color,omitempty"`
	LEDOnMS     int      `json:"led_on_ms,omitempty"`
	LEDOffMS    int      `json:"led_off_ms,omitempty"`
	TitleText   string   `json:"title_text"`
	BodyText    string   `json:"body_text"`
	TickerText  string   `json:"ticker_text"`

	// InCallPlayback routes sound through explicit media playback instead of
	// the alert-native sound path; OneShotVibrate triggers vibration once
	// instead of attaching the pattern to the persistent alert.
	InCallPlayback bool `json:"in_call_playback,omitempty"`
	OneShotVibrate bool `json:"one_shot_vibrate,omitempty"`
}

// Fallback strips custom sound/vibration/LED selections after a delivery failure.
// Params: none.
// Returns: profile copy relying on device defaults for every effect.
func (p DeliveryProfile) Fallback() DeliveryProfile {
	p.SoundRef = ""
	p.Vibration = nil
	p.LEDColor = 0
	p.LEDOnMS = 0
	p.LEDOffMS = 0
	p.UseDefaults = true
	p.InCallPlayback = false
	p.OneShotVibrate = false
	return p
}

// Silence removes audible and tactile effects while keeping LED and text.
// Params: none.
// Returns: profile copy suitable for status-only/silent delivery.
func (p DeliveryProfile) Silence() DeliveryProfile {
	p.SoundRef = ""
	p.Vibration = nil
	p.InCallPlayback = false
	p.OneShotVibrate = false
	return p
}

// Outcome is the terminal classification of one ingested event.
// Params: constants for the pipeline state machine results.
// Returns: outcome marker used by callers and tests.
type Outcome string

const (
	// OutcomeDelivered marks a full alert shown with resolved effects.
	OutcomeDelivered Outcome = "delivered"
	// OutcomeSilentlyDelivered marks an alert shown without sound/vibration.
	OutcomeSilentlyDelivered Outcome = "silently_delivered"
	// OutcomeDeferred marks an event rescheduled for a later attempt.
	OutcomeDeferred Outcome = "deferred"
	// OutcomeSuppressed marks an event dropped with no alert and no retry.
	OutcomeSuppressed Outcome = "suppressed"
)

// DeferReason explains why delivery was postponed.
// Params: constants for the supported blocking conditions.
// Returns: reason recorded on the deferred work entry.
type DeferReason string

const (
	// DeferReasonInCall marks deferral caused by an active phone call.
	DeferReasonInCall DeferReason = "in_call"
	// DeferReasonBlockingApp marks deferral caused by a blocking foreground app.
	DeferReasonBlockingApp DeferReason = "blocking_app"
	// DeferReasonQuietTime marks deferral caused by the quiet-time window.
	DeferReasonQuietTime DeferReason = "quiet_time"
)

// DeferredWork is one scheduled redelivery attempt.
// Params: carried event, absolute fire time, attempt counter, and defer reason.
// Returns: persisted retry entry addressed by a stable key.
type DeferredWork struct {
	Event   Event       `json:"event"`
	FireAt  time.Time   `json:"fire_at"`
	Attempt int         `json:"attempt"`
	Reason  DeferReason `json:"reason"`
}

// Key builds the stable work key so duplicate scheduling replaces pending work.
// Params: none.
// Returns: "category.timestamp.attempt" identity string.
func (w DeferredWork) Key() string {
	return WorkKey(w.Event.Category, w.Event.DT, w.Attempt)
}

// WorkKey builds a deferred-work key from its identity parts.
// Params: event category, event timestamp in unix ms, and attempt counter.
// Returns: stable dot-separated key safe for KV backends.
func WorkKey(category Category, dt int64, attempt int) string {
	return string(category) + "." + strconv.FormatInt(dt, 10) + "." + strconv.Itoa(attempt)
}

// Encode serializes the work entry for the store backend.
// Params: none.
// Returns: JSON document bytes or encode error.
func (w DeferredWork) Encode() ([]byte, error) {
	body, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode deferred work: %w", err)
	}
	return body, nil
}

// DecodeDeferredWork decodes one persisted deferred-work payload.
// Params: JSON document bytes from the store backend.
// Returns: decoded work entry or decode error.
func DecodeDeferredWork(raw []byte) (DeferredWork, error) {
	var work DeferredWork
	if err := json.Unmarshal(raw, &work); err != nil {
		return DeferredWork{}, fmt.Errorf("decode deferred work: %w", err)
	}
	return work, nil
}
