package domain

import (
	"testing"
	"time"
)

func TestDecodeEvent(t *testing.T) {
	t.Parallel()

	event, err := DecodeEvent([]byte(`{"category":"sms","address":"5551234567","display_name":"Bob","body":"hi","dt":1739876543210}`))
	if err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Category != CategorySMS {
		t.Fatalf("unexpected category %q", event.Category)
	}
	if event.DisplayName != "Bob" {
		t.Fatalf("unexpected display name %q", event.DisplayName)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{name: "valid sms", event: Event{Category: CategorySMS, DT: 1}},
		{name: "valid facebook message", event: Event{Category: CategoryFacebook, SubCategory: SubCategoryFacebookMessage, DT: 1}},
		{name: "unknown category", event: Event{Category: "pager", DT: 1}, wantErr: true},
		{name: "zero dt", event: Event{Category: CategorySMS}, wantErr: true},
		{name: "negative reschedules", event: Event{Category: CategorySMS, DT: 1, Reschedules: -1}, wantErr: true},
		{name: "bad time base", event: Event{Category: CategorySMS, DT: 1, TimeBase: "utc"}, wantErr: true},
		{name: "sub-category on plain category", event: Event{Category: CategorySMS, SubCategory: SubCategoryFacebookMessage, DT: 1}, wantErr: true},
		{name: "foreign sub-category", event: Event{Category: CategoryTwitter, SubCategory: SubCategoryFacebookFriendRequest, DT: 1}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.event.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNormalizeShiftsGMTTimestamps(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("plus2", 2*60*60)
	event := Event{Category: CategorySMS, DT: 1_000_000, TimeBase: TimeBaseGMT}

	normalized := event.Normalize(loc)
	if normalized.DT != event.DT+2*60*60*1000 {
		t.Fatalf("expected dt shifted by offset, got %d", normalized.DT)
	}
	if normalized.TimeBase != TimeBaseLocal {
		t.Fatalf("expected local time base, got %q", normalized.TimeBase)
	}
}

func TestNormalizeLeavesLocalTimestamps(t *testing.T) {
	t.Parallel()

	event := Event{Category: CategorySMS, DT: 1_000_000}
	normalized := event.Normalize(time.FixedZone("plus2", 2*60*60))
	if normalized.DT != event.DT {
		t.Fatalf("expected untouched dt, got %d", normalized.DT)
	}
	if normalized.TimeBase != TimeBaseLocal {
		t.Fatalf("expected local time base, got %q", normalized.TimeBase)
	}
}

func TestStripMarkup(t *testing.T) {
	t.Parallel()

	got := StripMarkup("<b>Hello</b><br/><br/>line<br/>two <i>soft</i> <u>u</u>")
	want := "Hello line two soft u"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestDeferredWorkRoundTrip(t *testing.T) {
	t.Parallel()

	work := DeferredWork{
		Event:   Event{Category: CategoryMissedCall, DT: 1739876543210, Reschedules: 1},
		FireAt:  time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC),
		Attempt: 2,
		Reason:  DeferReasonInCall,
	}
	if work.Key() != "missed_call.1739876543210.2" {
		t.Fatalf("unexpected key %q", work.Key())
	}

	raw, err := work.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeDeferredWork(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Key() != work.Key() || decoded.Reason != work.Reason {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
	if !decoded.FireAt.Equal(work.FireAt) {
		t.Fatalf("fire time mismatch: %v", decoded.FireAt)
	}
}
