package profile

import (
	"reflect"
	"testing"

	"notifyd/internal/domain"
	"notifyd/internal/prefs"
)

// TestParseVibratePattern verifies clamping, truncation and hard failure.
func TestParseVibratePattern(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want []int
		ok   bool
	}{
		{name: "valid", raw: "0,1200,100,1200", want: []int{0, 1200, 100, 1200}, ok: true},
		{name: "clamped high", raw: "99999", want: []int{60000}, ok: true},
		{name: "clamped negative", raw: "-5,100", want: []int{0, 100}, ok: true},
		{name: "spaces tolerated", raw: " 0 , 300 ", want: []int{0, 300}, ok: true},
		{name: "bad token fails whole pattern", raw: "0,abc,100"},
		{name: "trailing comma fails", raw: "0,300,"},
		{name: "empty", raw: ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseVibratePattern(tc.raw)
			if ok != tc.ok {
				t.Fatalf("ok: got %v, want %v", ok, tc.ok)
			}
			if ok && !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("pattern: got %v, want %v", got, tc.want)
			}
		})
	}
}

// TestParseVibratePatternTruncates verifies the 100-entry cap.
func TestParseVibratePatternTruncates(t *testing.T) {
	t.Parallel()

	raw := "100"
	for i := 0; i < 150; i++ {
		raw += ",100"
	}
	got, ok := ParseVibratePattern(raw)
	if !ok {
		t.Fatal("oversized pattern must still parse")
	}
	if len(got) != 100 {
		t.Fatalf("entries: got %d, want 100", len(got))
	}
}

// TestParseLEDPattern verifies exact-arity parsing.
func TestParseLEDPattern(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		raw     string
		on, off int
		ok      bool
	}{
		{name: "valid", raw: "1000,1000", on: 1000, off: 1000, ok: true},
		{name: "clamped", raw: "70000,-1", on: 60000, off: 0, ok: true},
		{name: "one value", raw: "1000"},
		{name: "three values", raw: "100,100,100"},
		{name: "non numeric", raw: "on,off"},
		{name: "empty", raw: ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			on, off, ok := ParseLEDPattern(tc.raw)
			if ok != tc.ok {
				t.Fatalf("ok: got %v, want %v", ok, tc.ok)
			}
			if ok && (on != tc.on || off != tc.off) {
				t.Fatalf("got %d,%d want %d,%d", on, off, tc.on, tc.off)
			}
		})
	}
}

// TestParseLEDColor verifies hex parsing with prefixes.
func TestParseLEDColor(t *testing.T) {
	t.Parallel()

	if color, ok := ParseLEDColor("#FF00FF00"); !ok || color != 0xFF00FF00 {
		t.Fatalf("hash prefix: got %#x ok=%v", color, ok)
	}
	if color, ok := ParseLEDColor("0xFF0000FF"); !ok || color != 0xFF0000FF {
		t.Fatalf("0x prefix: got %#x ok=%v", color, ok)
	}
	if _, ok := ParseLEDColor("notacolor"); ok {
		t.Fatal("bad color must fail")
	}
}

// TestResolveNilOnEmptyEvent verifies empty alerts are suppressed for
// every category.
func TestResolveNilOnEmptyEvent(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(prefs.NewMemoryStore(nil))
	for _, category := range domain.Categories() {
		event := domain.Event{Category: category, Body: "  <br/> "}
		if got := resolver.Resolve(event, Conditions{}); got != nil {
			t.Fatalf("category %s: empty event must resolve to nil, got %+v", category, got)
		}
	}
}

// TestResolveNilWhenStatusBarDisabled verifies the per-category
// status-bar flag suppresses the whole profile.
func TestResolveNilWhenStatusBarDisabled(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(prefs.NewMemoryStore(map[string]string{
		prefs.CategoryKey(domain.CategorySMS, prefs.KeyStatusBarEnabled): "false",
	}))
	event := domain.Event{Category: domain.CategorySMS, Address: "555", Body: "hi"}
	if got := resolver.Resolve(event, Conditions{}); got != nil {
		t.Fatalf("disabled status bar must resolve to nil, got %+v", got)
	}

	email := domain.Event{Category: domain.CategoryEmail, Address: "a@b.c", Body: "hi"}
	if got := resolver.Resolve(email, Conditions{}); got == nil {
		t.Fatal("other categories must stay unaffected")
	}
}

// TestResolveText verifies the per-category text templates.
func TestResolveText(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(prefs.NewMemoryStore(nil))

	cases := []struct {
		name       string
		event      domain.Event
		wantTitle  string
		wantBody   string
		wantTicker string
	}{
		{
			name: "sms with display name",
			event: domain.Event{
				Category:    domain.CategorySMS,
				Address:     "5551234567",
				DisplayName: "Ada",
				Body:        "<b>Hi</b>",
			},
			wantTitle:  "Text Message",
			wantBody:   "Hi",
			wantTicker: "New text message from Ada",
		},
		{
			name: "sms unknown sender",
			event: domain.Event{
				Category: domain.CategorySMS,
				Address:  "5551234567",
				Body:     "Hi",
			},
			wantTitle:  "Text Message",
			wantBody:   "Hi",
			wantTicker: "New text message from 5551234567",
		},
		{
			name: "missed call",
			event: domain.Event{
				Category:    domain.CategoryMissedCall,
				Address:     "5551234567",
				DisplayName: "Ada",
			},
			wantTitle:  "Missed Call",
			wantBody:   "Missed call from Ada",
			wantTicker: "Missed call from Ada",
		},
		{
			name: "calendar has no sender",
			event: domain.Event{
				Category: domain.CategoryCalendar,
				Body:     "Standup at 10:00",
			},
			wantTitle:  "Calendar Reminder",
			wantBody:   "Standup at 10:00",
			wantTicker: "New calendar reminder: Standup at 10:00",
		},
		{
			name: "twitter direct message",
			event: domain.Event{
				Category:    domain.CategoryTwitter,
				SubCategory: domain.SubCategoryTwitterDirectMessage,
				Address:     "@ada",
				Body:        "hello",
			},
			wantTitle:  "Twitter",
			wantBody:   "hello",
			wantTicker: "New Twitter direct message from @ada",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := resolver.Resolve(tc.event, Conditions{})
			if got == nil {
				t.Fatal("resolve returned nil")
			}
			if got.TitleText != tc.wantTitle || got.BodyText != tc.wantBody || got.TickerText != tc.wantTicker {
				t.Fatalf("text: got title=%q body=%q ticker=%q", got.TitleText, got.BodyText, got.TickerText)
			}
		})
	}
}

// TestResolveEffects verifies vibrate/LED preference resolution.
func TestResolveEffects(t *testing.T) {
	t.Parallel()

	event := domain.Event{Category: domain.CategorySMS, Address: "555", Body: "hi"}

	t.Run("custom vibrate pattern", func(t *testing.T) {
		t.Parallel()
		resolver := NewResolver(prefs.NewMemoryStore(map[string]string{
			"sms.vibrate_pattern":        "custom",
			"sms.vibrate_pattern_custom": "0,300,200,300",
		}))
		got := resolver.Resolve(event, Conditions{})
		if !reflect.DeepEqual(got.Vibration, []int{0, 300, 200, 300}) {
			t.Fatalf("vibration: got %v", got.Vibration)
		}
	})

	t.Run("bad custom pattern falls back to defaults", func(t *testing.T) {
		t.Parallel()
		resolver := NewResolver(prefs.NewMemoryStore(map[string]string{
			"sms.vibrate_pattern":        "custom",
			"sms.vibrate_pattern_custom": "0,broken",
		}))
		got := resolver.Resolve(event, Conditions{})
		if got.Vibration != nil || !got.UseDefaults {
			t.Fatalf("want device-default vibration, got %+v", got)
		}
	})

	t.Run("never mode blocks vibration", func(t *testing.T) {
		t.Parallel()
		resolver := NewResolver(prefs.NewMemoryStore(map[string]string{
			"sms.vibrate_mode":    prefs.VibrateNever,
			"sms.vibrate_pattern": "short",
		}))
		got := resolver.Resolve(event, Conditions{VibrateRingerMode: true})
		if got.Vibration != nil || got.UseDefaults {
			t.Fatalf("never mode vibrated: %+v", got)
		}
	})

	t.Run("when_vibrate_mode respects ringer state", func(t *testing.T) {
		t.Parallel()
		resolver := NewResolver(prefs.NewMemoryStore(map[string]string{
			"sms.vibrate_mode":    prefs.VibrateWhenVibrateMode,
			"sms.vibrate_pattern": "short",
		}))
		if got := resolver.Resolve(event, Conditions{}); got.Vibration != nil {
			t.Fatalf("normal ringer must not vibrate, got %v", got.Vibration)
		}
		got := resolver.Resolve(event, Conditions{VibrateRingerMode: true})
		if !reflect.DeepEqual(got.Vibration, []int{0, 300}) {
			t.Fatalf("vibrate ringer: got %v", got.Vibration)
		}
	})

	t.Run("led color and pattern defaults on bad custom values", func(t *testing.T) {
		t.Parallel()
		resolver := NewResolver(prefs.NewMemoryStore(map[string]string{
			"sms.led_color":          "custom",
			"sms.led_color_custom":   "nothex",
			"sms.led_pattern":        "custom",
			"sms.led_pattern_custom": "1,2,3",
		}))
		got := resolver.Resolve(event, Conditions{})
		if !got.LEDEnabled || got.LEDColor != defaultLEDColor {
			t.Fatalf("led color: got %#x enabled=%v", got.LEDColor, got.LEDEnabled)
		}
		if got.LEDOnMS != 1000 || got.LEDOffMS != 1000 {
			t.Fatalf("led pattern: got %d,%d", got.LEDOnMS, got.LEDOffMS)
		}
	})

	t.Run("led disabled", func(t *testing.T) {
		t.Parallel()
		resolver := NewResolver(prefs.NewMemoryStore(map[string]string{
			"sms.led_enabled": "false",
		}))
		got := resolver.Resolve(event, Conditions{})
		if got.LEDEnabled || got.LEDColor != 0 {
			t.Fatalf("led must stay off, got %+v", got)
		}
	})

	t.Run("unknown icon name uses category default", func(t *testing.T) {
		t.Parallel()
		resolver := NewResolver(prefs.NewMemoryStore(map[string]string{
			"sms.icon": "sparkly",
		}))
		if got := resolver.Resolve(event, Conditions{}); got.IconRef != "icon_sms_green" {
			t.Fatalf("icon: got %q", got.IconRef)
		}
	})
}

// TestResolveInCallNarrowing verifies sound/vibration handling during calls.
func TestResolveInCallNarrowing(t *testing.T) {
	t.Parallel()

	event := domain.Event{Category: domain.CategorySMS, Address: "555", Body: "hi"}

	t.Run("overrides disabled strips effects", func(t *testing.T) {
		t.Parallel()
		resolver := NewResolver(prefs.NewMemoryStore(map[string]string{
			"sms.sound":           "notification_default",
			"sms.vibrate_pattern": "short",
		}))
		got := resolver.Resolve(event, Conditions{CallActive: true})
		if got.SoundRef != "" || got.Vibration != nil {
			t.Fatalf("in-call effects not stripped: %+v", got)
		}
		if got.TitleText == "" {
			t.Fatal("text must survive in-call narrowing")
		}
	})

	t.Run("overrides enabled reroute effects", func(t *testing.T) {
		t.Parallel()
		resolver := NewResolver(prefs.NewMemoryStore(map[string]string{
			"sms.sound":           "notification_default",
			"sms.vibrate_pattern": "short",
			"sms.in_call_sound":   "true",
			"sms.in_call_vibrate": "true",
		}))
		got := resolver.Resolve(event, Conditions{CallActive: true})
		if !got.InCallPlayback || got.SoundRef == "" {
			t.Fatalf("in-call sound must use playback path: %+v", got)
		}
		if !got.OneShotVibrate {
			t.Fatalf("in-call vibration must be one-shot: %+v", got)
		}
	})
}
