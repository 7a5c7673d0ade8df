package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Category identifies the originating source of one notification event.
// Params: constants for the fixed set of supported sources.
// Returns: normalized category usage across the pipeline.
type Category string

const (
	// CategorySMS marks incoming text messages.
	CategorySMS Category = "sms"
	// CategoryMMS marks incoming multimedia messages.
	CategoryMMS Category = "mms"
	// CategoryMissedCall marks missed phone calls.
	CategoryMissedCall Category = "missed_call"
	// CategoryCalendar marks calendar event reminders.
	CategoryCalendar Category = "calendar"
	// CategoryFacebook marks Facebook notifications of any sub-kind.
	CategoryFacebook Category = "facebook"
	// CategoryTwitter marks Twitter notifications of any sub-kind.
	CategoryTwitter Category = "twitter"
	// CategoryEmail marks incoming email messages.
	CategoryEmail Category = "email"
)

// SubCategory refines the source kind within Facebook/Twitter categories.
// Params: constants for supported sub-kinds; empty for plain categories.
// Returns: refinement marker used for text template selection.
type SubCategory string

const (
	// SubCategoryNone marks categories without sub-kinds.
	SubCategoryNone SubCategory = ""
	// SubCategoryFacebookNotification marks generic Facebook notifications.
	SubCategoryFacebookNotification SubCategory = "notification"
	// SubCategoryFacebookMessage marks Facebook direct messages.
	SubCategoryFacebookMessage SubCategory = "message"
	// SubCategoryFacebookFriendRequest marks Facebook friend requests.
	SubCategoryFacebookFriendRequest SubCategory = "friend_request"
	// SubCategoryTwitterMention marks Twitter mentions.
	SubCategoryTwitterMention SubCategory = "mention"
	// SubCategoryTwitterDirectMessage marks Twitter direct messages.
	SubCategoryTwitterDirectMessage SubCategory = "direct_message"
	// SubCategoryTwitterFollowerRequest marks Twitter follower requests.
	SubCategoryTwitterFollowerRequest SubCategory = "follower_request"
)

// Categories lists every supported category in deterministic order.
// Params: none.
// Returns: fixed category slice for iteration and table building.
func Categories() []Category {
	return []Category{
		CategorySMS,
		CategoryMMS,
		CategoryMissedCall,
		CategoryCalendar,
		CategoryFacebook,
		CategoryTwitter,
		CategoryEmail,
	}
}

// TimeBase marks the zone the event timestamp was captured in.
// Params: constants "local" or "gmt".
// Returns: normalization hint consumed once at ingestion.
type TimeBase string

const (
	// TimeBaseLocal marks timestamps already in device-local wall time.
	TimeBaseLocal TimeBase = "local"
	// TimeBaseGMT marks timestamps in GMT wall time requiring local conversion.
	TimeBaseGMT TimeBase = "gmt"
)

// Event is one normalized incoming notification item.
// Params: category identity, sender fields, body, timestamp, opaque source ids, and retry counter.
// Returns: validated event payload for pipeline processing.
type Event struct {
	Category    Category          `json:"category"`
	SubCategory SubCategory       `json:"sub_category,omitempty"`
	Address     string            `json:"address,omitempty"`
	DisplayName string            `json:"display_name,omitempty"`
	Body        string            `json:"body,omitempty"`
	DT          int64             `json:"dt"`
	TimeBase    TimeBase          `json:"time_base,omitempty"`
	ExternalIDs map[string]string `json:"external_ids,omitempty"`
	Reschedules int               `json:"reschedules,omitempty"`
}

// EventTime converts milliseconds unix timestamp into local time.
// Params: event timestamp in unix milliseconds.
// Returns: converted local-zone time.
func (e Event) EventTime() time.Time {
	return time.UnixMilli(e.DT)
}

// Normalize converts a GMT wall-time timestamp to local wall time once at ingestion.
// Params: location used for offset lookup.
// Returns: event copy with local timestamp and cleared time base marker.
func (e Event) Normalize(loc *time.Location) Event {
	if e.TimeBase != TimeBaseGMT {
		e.TimeBase = TimeBaseLocal
		return e
	}
	if loc == nil {
		loc = time.Local
	}
	_, offsetSec := time.UnixMilli(e.DT).In(loc).Zone()
	e.DT += int64(offsetSec) * 1000
	e.TimeBase = TimeBaseLocal
	return e
}

// DecodeEvent decodes and validates one event payload.
// Params: JSON document bytes.
// Returns: validated event or decode/validation error.
func DecodeEvent(raw []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return Event{}, err
	}
	return event, nil
}

// DecodeEventReader decodes and validates one event payload from stream.
// Params: reader with one JSON object.
// Returns: validated event or decode/validation error.
func DecodeEventReader(reader *json.Decoder) (Event, error) {
	var event Event
	if err := reader.Decode(&event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return Event{}, err
	}
	return event, nil
}

// Validate validates one event against the contract.
// Params: event fields parsed from transport.
// Returns: validation error when schema is violated.
func (e Event) Validate() error {
	if !ValidCategory(e.Category) {
		return fmt.Errorf("unsupported category %q", e.Category)
	}
	if e.DT <= 0 {
		return errors.New("dt must be >0")
	}
	if e.Reschedules < 0 {
		return errors.New("reschedules must be >=0")
	}
	switch e.TimeBase {
	case "", TimeBaseLocal, TimeBaseGMT:
	default:
		return fmt.Errorf("unsupported time_base %q", e.TimeBase)
	}
	if err := validateSubCategory(e.Category, e.SubCategory); err != nil {
		return err
	}
	return nil
}

// ValidCategory reports whether the value is one of the supported categories.
// Params: candidate category value.
// Returns: true for known categories.
func ValidCategory(category Category) bool {
	switch category {
	case CategorySMS, CategoryMMS, CategoryMissedCall, CategoryCalendar,
		CategoryFacebook, CategoryTwitter, CategoryEmail:
		return true
	default:
		return false
	}
}

// validateSubCategory checks sub-kind membership per category.
// Params: category and optional sub-category.
// Returns: error when the pair is inconsistent.
func validateSubCategory(category Category, sub SubCategory) error {
	if sub == SubCategoryNone {
		return nil
	}
	switch category {
	case CategoryFacebook:
		switch sub {
		case SubCategoryFacebookNotification, SubCategoryFacebookMessage, SubCategoryFacebookFriendRequest:
			return nil
		}
	case CategoryTwitter:
		switch sub {
		case SubCategoryTwitterMention, SubCategoryTwitterDirectMessage, SubCategoryTwitterFollowerRequest:
			return nil
		}
	}
	return fmt.Errorf("sub_category %q is not valid for category %q", sub, category)
}

// markupReplacer strips presentation-hint markup carried by some sources.
var markupReplacer = strings.NewReplacer(
	"<br/><br/>", " ",
	"<br/>", " ",
	"<b>", "",
	"</b>", "",
	"<i>", "",
	"</i>", "",
	"<u>", "",
	"</u>", "",
)

// StripMarkup removes HTML-like presentation hints from a message body.
// Params: raw body text possibly carrying markup tags.
// Returns: plain text suitable for rendering.
func StripMarkup(body string) string {
	if body == "" {
		return ""
	}
	return markupReplacer.Replace(body)
}
