package prefs

import "testing"

// TestMemoryStoreDefaults verifies fallback values for absent and bad keys.
func TestMemoryStoreDefaults(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(map[string]string{
		"sms.popup_enabled": "not-a-bool",
		"sms.sound":         "alarm",
		"bad.int":           "ten",
	})

	if got := store.GetBool("missing", true); !got {
		t.Fatalf("GetBool missing: got %v, want true", got)
	}
	if got := store.GetBool("sms.popup_enabled", true); !got {
		t.Fatalf("GetBool unparseable: got %v, want fallback true", got)
	}
	if got := store.GetString("sms.sound", "default"); got != "alarm" {
		t.Fatalf("GetString: got %q, want %q", got, "alarm")
	}
	if got := store.GetInt("bad.int", 5); got != 5 {
		t.Fatalf("GetInt unparseable: got %d, want fallback 5", got)
	}
	if got := store.GetInt("missing", 7); got != 7 {
		t.Fatalf("GetInt missing: got %d, want fallback 7", got)
	}
}

// TestSessionFlags verifies only session flag keys accept writes.
func TestSessionFlags(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(nil)
	store.SetSessionFlag(KeyUserInQuickReply, true)
	store.SetSessionFlag(KeyAppEnabled, true)

	if !store.GetBool(KeyUserInQuickReply, false) {
		t.Fatal("session flag write lost")
	}
	if store.GetBool(KeyAppEnabled, false) {
		t.Fatal("non-session key accepted a write")
	}
}

// TestReplacePreservesSessionFlags verifies reload keeps in-flight flags.
func TestReplacePreservesSessionFlags(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(map[string]string{"sms.sound": "old"})
	store.SetSessionFlag(KeyUserInLinkedApp, true)
	store.Replace(map[string]string{"sms.sound": "new"})

	if got := store.GetString("sms.sound", ""); got != "new" {
		t.Fatalf("replaced value: got %q, want %q", got, "new")
	}
	if !store.GetBool(KeyUserInLinkedApp, false) {
		t.Fatal("session flag dropped on replace")
	}
}
