package policy

import (
	"strconv"
	"strings"
	"time"

	"notifyd/internal/prefs"
)

// QuietWindow describes a recurring daily time-of-day window.
// A start minute-of-day at or past the stop minute denotes a window
// spanning midnight.
type QuietWindow struct {
	StartHour   int
	StartMinute int
	StopHour    int
	StopMinute  int
	Days        string
}

// ParseClockValue parses an "HH|MM" time-of-day preference value.
// Params: raw value like "22|30".
// Returns: hour, minute and ok=false on any malformed input.
func ParseClockValue(raw string) (int, int, bool) {
	parts := strings.Split(raw, "|")
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// QuietWindowFromPrefs assembles the quiet-time window from preferences.
// Params: preference store.
// Returns: window and ok=false when quiet time is disabled or unset.
func QuietWindowFromPrefs(store prefs.Store) (QuietWindow, bool) {
	if !store.GetBool(prefs.KeyQuietTimeEnabled, false) {
		return QuietWindow{}, false
	}
	startHour, startMinute, ok := ParseClockValue(store.GetString(prefs.KeyQuietTimeStart, ""))
	if !ok {
		return QuietWindow{}, false
	}
	stopHour, stopMinute, ok := ParseClockValue(store.GetString(prefs.KeyQuietTimeStop, ""))
	if !ok {
		return QuietWindow{}, false
	}
	return QuietWindow{
		StartHour:   startHour,
		StartMinute: startMinute,
		StopHour:    stopHour,
		StopMinute:  stopMinute,
		Days:        store.GetString(prefs.KeyQuietTimeDays, prefs.QuietDaysEveryday),
	}, true
}

// appliesOn reports whether the window is active on the given weekday.
// Params: weekday of the instant under test.
// Returns: true when the day filter covers the weekday.
func (w QuietWindow) appliesOn(day time.Weekday) bool {
	switch w.Days {
	case prefs.QuietDaysWeekend:
		return day == time.Saturday || day == time.Sunday
	case prefs.QuietDaysWeekday:
		return day >= time.Monday && day <= time.Friday
	default:
		return true
	}
}

// Contains reports whether an instant falls inside the quiet window.
// Params: local wall-clock instant.
// Returns: true when the day filter matches and the minute-of-day lies
// within the window, including windows spanning midnight.
func (w QuietWindow) Contains(at time.Time) bool {
	if !w.appliesOn(at.Weekday()) {
		return false
	}
	minute := at.Hour()*60 + at.Minute()
	start := w.StartHour*60 + w.StartMinute
	stop := w.StopHour*60 + w.StopMinute
	if start >= stop {
		// Spans midnight: active from start until midnight and from
		// midnight until stop.
		return minute >= start || minute < stop
	}
	return minute >= start && minute < stop
}
