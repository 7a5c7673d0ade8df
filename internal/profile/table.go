package profile

import (
	"notifyd/internal/domain"
)

// Preset names accepted for the vibrate/LED pattern and color settings.
// "custom" routes the lookup to the matching *_custom preference.
const presetCustom = "custom"

// vibratePresets maps named vibration patterns to millisecond sequences.
var vibratePresets = map[string][]int{
	"default":    nil,
	"short":      {0, 300},
	"double":     {0, 300, 200, 300},
	"long":       {0, 1200},
	"long_pause": {0, 1200, 500, 1200},
}

// ledColorPresets maps named LED colors to ARGB values.
var ledColorPresets = map[string]uint32{
	"blue":    0xFF0000FF,
	"cyan":    0xFF00FFFF,
	"green":   0xFF00FF00,
	"magenta": 0xFFFF00FF,
	"orange":  0xFFFF8000,
	"red":     0xFFFF0000,
	"white":   0xFFFFFFFF,
	"yellow":  0xFFFFFF00,
}

// defaultLEDColor is used when a color preference fails to resolve.
const defaultLEDColor uint32 = 0xFF0000FF

// ledPatternPresets maps named LED blink cadences to on/off pairs.
var ledPatternPresets = map[string][2]int{
	"default": {1000, 1000},
	"fast":    {250, 250},
	"slow":    {2000, 2000},
	"pulse":   {100, 2000},
}

// defaultLEDPattern is used when a pattern preference fails to resolve.
var defaultLEDPattern = [2]int{1000, 1000}

// categorySpec is the static per-category rendering table.
// Params: default icon, accepted icon names, and alert title.
type categorySpec struct {
	Title       string
	DefaultIcon string
	Icons       map[string]string
}

// categoryTable holds the per-category rendering constants. Icon names
// resolve to renderer asset references; unknown names fall back to the
// category default.
var categoryTable = map[domain.Category]categorySpec{
	domain.CategorySMS: {
		Title:       "Text Message",
		DefaultIcon: "icon_sms_green",
		Icons: map[string]string{
			"green": "icon_sms_green",
			"blue":  "icon_sms_blue",
			"white": "icon_sms_white",
		},
	},
	domain.CategoryMMS: {
		Title:       "Multimedia Message",
		DefaultIcon: "icon_sms_green",
		Icons: map[string]string{
			"green": "icon_sms_green",
			"blue":  "icon_sms_blue",
			"white": "icon_sms_white",
		},
	},
	domain.CategoryMissedCall: {
		Title:       "Missed Call",
		DefaultIcon: "icon_call_red",
		Icons: map[string]string{
			"red":   "icon_call_red",
			"black": "icon_call_black",
			"white": "icon_call_white",
		},
	},
	domain.CategoryCalendar: {
		Title:       "Calendar Reminder",
		DefaultIcon: "icon_calendar_blue",
		Icons: map[string]string{
			"blue":  "icon_calendar_blue",
			"white": "icon_calendar_white",
		},
	},
	domain.CategoryFacebook: {
		Title:       "Facebook",
		DefaultIcon: "icon_facebook_blue",
		Icons: map[string]string{
			"blue": "icon_facebook_blue",
		},
	},
	domain.CategoryTwitter: {
		Title:       "Twitter",
		DefaultIcon: "icon_twitter_blue",
		Icons: map[string]string{
			"blue": "icon_twitter_blue",
		},
	},
	domain.CategoryEmail: {
		Title:       "Email",
		DefaultIcon: "icon_email_white",
		Icons: map[string]string{
			"white": "icon_email_white",
			"blue":  "icon_email_blue",
		},
	},
}

// eventNoun names the alert kind shown in ticker and body text for one
// category/sub-category pair.
// Params: category and optional sub-category.
// Returns: human-readable noun phrase.
func eventNoun(category domain.Category, sub domain.SubCategory) string {
	switch category {
	case domain.CategorySMS:
		return "text message"
	case domain.CategoryMMS:
		return "multimedia message"
	case domain.CategoryMissedCall:
		return "missed call"
	case domain.CategoryCalendar:
		return "calendar reminder"
	case domain.CategoryEmail:
		return "email"
	case domain.CategoryFacebook:
		switch sub {
		case domain.SubCategoryFacebookMessage:
			return "Facebook message"
		case domain.SubCategoryFacebookFriendRequest:
			return "Facebook friend request"
		default:
			return "Facebook notification"
		}
	case domain.CategoryTwitter:
		switch sub {
		case domain.SubCategoryTwitterDirectMessage:
			return "Twitter direct message"
		case domain.SubCategoryTwitterFollowerRequest:
			return "Twitter follower request"
		default:
			return "Twitter mention"
		}
	default:
		return "notification"
	}
}
