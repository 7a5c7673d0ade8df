package policy

import (
	"testing"
	"time"

	"notifyd/internal/domain"
	"notifyd/internal/prefs"
)

// fixedClock returns the same instant on every call.
type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

// localTime builds a local wall-clock instant for window tests.
func localTime(t *testing.T, weekday time.Weekday, hour, minute int) time.Time {
	t.Helper()
	// 2026-08-03 is a Monday.
	base := time.Date(2026, time.August, 3, hour, minute, 0, 0, time.Local)
	return base.AddDate(0, 0, int(weekday-time.Monday))
}

// TestParseClockValue verifies "HH|MM" parsing and its failure modes.
func TestParseClockValue(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		raw    string
		hour   int
		minute int
		ok     bool
	}{
		{name: "valid", raw: "22|30", hour: 22, minute: 30, ok: true},
		{name: "midnight", raw: "0|0", hour: 0, minute: 0, ok: true},
		{name: "missing separator", raw: "2230"},
		{name: "hour out of range", raw: "24|00"},
		{name: "minute out of range", raw: "10|60"},
		{name: "non numeric", raw: "ten|30"},
		{name: "empty", raw: ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			hour, minute, ok := ParseClockValue(tc.raw)
			if ok != tc.ok {
				t.Fatalf("ok: got %v, want %v", ok, tc.ok)
			}
			if ok && (hour != tc.hour || minute != tc.minute) {
				t.Fatalf("got %d:%d, want %d:%d", hour, minute, tc.hour, tc.minute)
			}
		})
	}
}

// TestQuietWindowContains verifies day filters and midnight-spanning windows.
func TestQuietWindowContains(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		window QuietWindow
		at     time.Time
		want   bool
	}{
		{
			name:   "inside plain window",
			window: QuietWindow{StartHour: 9, StopHour: 17, Days: prefs.QuietDaysEveryday},
			at:     localTime(t, time.Monday, 12, 0),
			want:   true,
		},
		{
			name:   "before plain window",
			window: QuietWindow{StartHour: 9, StopHour: 17, Days: prefs.QuietDaysEveryday},
			at:     localTime(t, time.Monday, 8, 59),
			want:   false,
		},
		{
			name:   "midnight span late evening",
			window: QuietWindow{StartHour: 22, StopHour: 7, Days: prefs.QuietDaysEveryday},
			at:     localTime(t, time.Monday, 23, 30),
			want:   true,
		},
		{
			name:   "midnight span early morning",
			window: QuietWindow{StartHour: 22, StopHour: 7, Days: prefs.QuietDaysEveryday},
			at:     localTime(t, time.Tuesday, 6, 59),
			want:   true,
		},
		{
			name:   "midnight span daytime gap",
			window: QuietWindow{StartHour: 22, StopHour: 7, Days: prefs.QuietDaysEveryday},
			at:     localTime(t, time.Monday, 12, 0),
			want:   false,
		},
		{
			name:   "weekend filter excludes monday",
			window: QuietWindow{StartHour: 9, StopHour: 17, Days: prefs.QuietDaysWeekend},
			at:     localTime(t, time.Monday, 12, 0),
			want:   false,
		},
		{
			name:   "weekend filter includes saturday",
			window: QuietWindow{StartHour: 9, StopHour: 17, Days: prefs.QuietDaysWeekend},
			at:     localTime(t, time.Saturday, 12, 0),
			want:   true,
		},
		{
			name:   "weekday filter excludes sunday",
			window: QuietWindow{StartHour: 9, StopHour: 17, Days: prefs.QuietDaysWeekday},
			at:     localTime(t, time.Sunday, 12, 0),
			want:   false,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.window.Contains(tc.at); got != tc.want {
				t.Fatalf("Contains(%v): got %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

// TestAppRefMatches verifies package-only and package+class matching.
func TestAppRefMatches(t *testing.T) {
	t.Parallel()

	packageOnly := ParseAppRef("com.android.mms")
	if !packageOnly.Matches("com.android.mms", "ComposeActivity") {
		t.Fatal("package-only entry must match any class")
	}
	if packageOnly.Matches("com.android.email", "") {
		t.Fatal("package-only entry matched wrong package")
	}

	exact := ParseAppRef("com.android.mms/ComposeActivity")
	if !exact.Matches("com.android.mms", "ComposeActivity") {
		t.Fatal("exact entry must match the pair")
	}
	if exact.Matches("com.android.mms", "ConversationList") {
		t.Fatal("exact entry matched wrong class")
	}
}

// TestEvaluateRuleOrder verifies the decision for each blocking condition.
func TestEvaluateRuleOrder(t *testing.T) {
	t.Parallel()

	blocks := BlockLists{
		SMS: []AppRef{ParseAppRef("com.android.mms/ComposeActivity")},
	}
	smsBlocked := DeviceState{
		ForegroundPackage: "com.android.mms",
		ForegroundClass:   "ComposeActivity",
	}
	noon := fixedClock{at: localTime(t, time.Monday, 12, 0)}

	cases := []struct {
		name  string
		seed  map[string]string
		clock fixedClock
		state DeviceState
		want  Decision
	}{
		{
			name:  "app disabled suppresses",
			seed:  map[string]string{prefs.KeyAppEnabled: "false"},
			clock: noon,
			want:  Decision{Action: ActionSuppress},
		},
		{
			name:  "category disabled suppresses",
			seed:  map[string]string{"sms.popup_enabled": "false"},
			clock: noon,
			want:  Decision{Action: ActionSuppress},
		},
		{
			name: "quiet time suppresses without reschedule",
			seed: map[string]string{
				prefs.KeyQuietTimeEnabled: "true",
				prefs.KeyQuietTimeStart:   "22|00",
				prefs.KeyQuietTimeStop:    "7|00",
			},
			clock: fixedClock{at: localTime(t, time.Monday, 23, 0)},
			want:  Decision{Action: ActionSuppress},
		},
		{
			name: "quiet time defers with reschedule",
			seed: map[string]string{
				prefs.KeyQuietTimeEnabled:      "true",
				prefs.KeyQuietTimeStart:        "22|00",
				prefs.KeyQuietTimeStop:         "7|00",
				prefs.KeyRescheduleInQuietTime: "true",
			},
			clock: fixedClock{at: localTime(t, time.Tuesday, 6, 30)},
			want:  Decision{Action: ActionDefer, Reason: domain.DeferReasonQuietTime},
		},
		{
			name:  "call downgrades to silent",
			clock: noon,
			state: DeviceState{CallActive: true},
			want:  Decision{Action: ActionAllowSilently},
		},
		{
			name:  "call defers when reschedule enabled",
			seed:  map[string]string{prefs.KeyRescheduleInCall: "true"},
			clock: noon,
			state: DeviceState{CallActive: true},
			want:  Decision{Action: ActionDefer, Reason: domain.DeferReasonInCall},
		},
		{
			name:  "blocking app default reschedules",
			clock: noon,
			state: smsBlocked,
			want:  Decision{Action: ActionDefer, Reason: domain.DeferReasonBlockingApp},
		},
		{
			name:  "blocking app show allows",
			seed:  map[string]string{prefs.KeyBlockedAppAction: prefs.BlockedActionShow},
			clock: noon,
			state: smsBlocked,
			want:  Decision{Action: ActionAllow},
		},
		{
			name: "blocking app ignore suppresses with status alert",
			seed: map[string]string{
				prefs.KeyBlockedAppAction:   prefs.BlockedActionIgnore,
				prefs.KeyBlockedStatusAlert: "true",
			},
			clock: noon,
			state: smsBlocked,
			want:  Decision{Action: ActionSuppress, StatusBarAlert: true},
		},
		{
			name:  "quick reply session blocks",
			seed:  map[string]string{prefs.KeyUserInQuickReply: "true"},
			clock: noon,
			want:  Decision{Action: ActionDefer, Reason: domain.DeferReasonBlockingApp},
		},
		{
			name:  "idle allows",
			clock: noon,
			want:  Decision{Action: ActionAllow},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			pol := New(prefs.NewMemoryStore(tc.seed), tc.clock, blocks)
			got := pol.Evaluate(domain.CategorySMS, tc.state)
			if got != tc.want {
				t.Fatalf("Evaluate: got %+v, want %+v", got, tc.want)
			}
		})
	}
}

// TestEvaluateQuietTimePrecedesCall verifies quiet time wins over a call.
func TestEvaluateQuietTimePrecedesCall(t *testing.T) {
	t.Parallel()

	store := prefs.NewMemoryStore(map[string]string{
		prefs.KeyQuietTimeEnabled: "true",
		prefs.KeyQuietTimeStart:   "22|00",
		prefs.KeyQuietTimeStop:    "7|00",
	})
	pol := New(store, fixedClock{at: localTime(t, time.Monday, 23, 0)}, BlockLists{})

	got := pol.Evaluate(domain.CategorySMS, DeviceState{CallActive: true})
	if got.Action != ActionSuppress {
		t.Fatalf("quiet time must win over call handling, got %+v", got)
	}
}

// TestRescheduleInterval verifies the floor, the default, and the
// per-reason override.
func TestRescheduleInterval(t *testing.T) {
	t.Parallel()

	pol := New(prefs.NewMemoryStore(map[string]string{
		prefs.KeyRescheduleIntervalMin: "0",
	}), fixedClock{}, BlockLists{})
	if got := pol.RescheduleInterval(domain.DeferReasonInCall); got != time.Minute {
		t.Fatalf("interval floor: got %v, want %v", got, time.Minute)
	}

	pol = New(prefs.NewMemoryStore(nil), fixedClock{}, BlockLists{})
	if got := pol.RescheduleInterval(domain.DeferReasonInCall); got != 5*time.Minute {
		t.Fatalf("interval default: got %v, want 5m", got)
	}

	pol = New(prefs.NewMemoryStore(map[string]string{
		prefs.KeyRescheduleIntervalMin:              "5",
		prefs.KeyRescheduleIntervalMin + ".in_call": "2",
	}), fixedClock{}, BlockLists{})
	if got := pol.RescheduleInterval(domain.DeferReasonInCall); got != 2*time.Minute {
		t.Fatalf("per-reason override: got %v, want 2m", got)
	}
	if got := pol.RescheduleInterval(domain.DeferReasonQuietTime); got != 5*time.Minute {
		t.Fatalf("shared fallback: got %v, want 5m", got)
	}
}
