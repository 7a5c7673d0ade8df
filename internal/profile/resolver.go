package profile

import (
	"fmt"
	"strings"

	"notifyd/internal/domain"
	"notifyd/internal/prefs"
)

// Conditions is the device state consulted while resolving effects.
// Params: call flag and ringer vibrate-mode flag.
type Conditions struct {
	CallActive        bool
	VibrateRingerMode bool
}

// Resolver builds delivery profiles from preferences and event content.
type Resolver struct {
	prefs prefs.Store
}

// NewResolver creates a delivery profile resolver.
// Params: preference store.
// Returns: ready resolver.
func NewResolver(store prefs.Store) *Resolver {
	return &Resolver{prefs: store}
}

// Resolve builds the full delivery profile for one event.
// Params: normalized event and current device conditions.
// Returns: nil when the event has no renderable identity and no body,
// or when the category's status-bar alerts are disabled, so neither an
// empty nor an unwanted alert is ever shown.
func (r *Resolver) Resolve(event domain.Event, cond Conditions) *domain.DeliveryProfile {
	from := resolveFrom(event)
	body := domain.StripMarkup(event.Body)
	if from == "" && strings.TrimSpace(body) == "" {
		return nil
	}
	if !r.prefs.GetBool(prefs.CategoryKey(event.Category, prefs.KeyStatusBarEnabled), true) {
		return nil
	}

	spec, ok := categoryTable[event.Category]
	if !ok {
		return nil
	}

	profile := &domain.DeliveryProfile{
		Category: event.Category,
		IconRef:  r.resolveIcon(event.Category, spec),
		SoundRef: r.prefs.GetString(prefs.CategoryKey(event.Category, prefs.KeySound), ""),
	}
	r.resolveVibration(event.Category, cond, profile)
	r.resolveLED(event.Category, profile)
	resolveText(event, from, body, spec, profile)

	if cond.CallActive {
		narrowForCall(r.prefs, event.Category, profile)
	}
	return profile
}

// resolveFrom picks the displayed sender identity.
// Params: event under resolution.
// Returns: display name when resolved, else the source address.
func resolveFrom(event domain.Event) string {
	if name := strings.TrimSpace(event.DisplayName); name != "" {
		return name
	}
	return strings.TrimSpace(event.Address)
}

// resolveIcon maps the icon preference to an asset reference.
// Params: category and its static spec.
// Returns: named icon asset, or the category default on unknown names.
func (r *Resolver) resolveIcon(category domain.Category, spec categorySpec) string {
	name := r.prefs.GetString(prefs.CategoryKey(category, prefs.KeyIcon), "")
	if asset, ok := spec.Icons[name]; ok {
		return asset
	}
	return spec.DefaultIcon
}

// resolveVibration applies the vibrate mode, pattern preset and custom
// pattern preferences.
// Params: category, device conditions and profile under construction.
// Returns: profile updated in place; a nil pattern with vibration
// enabled means "use the device default pattern".
func (r *Resolver) resolveVibration(category domain.Category, cond Conditions, profile *domain.DeliveryProfile) {
	mode := r.prefs.GetString(prefs.CategoryKey(category, prefs.KeyVibrateMode), prefs.VibrateAlways)
	switch mode {
	case prefs.VibrateAlways:
	case prefs.VibrateWhenVibrateMode:
		if !cond.VibrateRingerMode {
			return
		}
	case prefs.VibrateNever:
		return
	default:
		// unknown modes vibrate nothing
		return
	}

	preset := r.prefs.GetString(prefs.CategoryKey(category, prefs.KeyVibratePattern), "default")
	if preset == presetCustom {
		raw := r.prefs.GetString(prefs.CategoryKey(category, prefs.KeyVibratePatternCustom), "")
		if pattern, ok := ParseVibratePattern(raw); ok {
			profile.Vibration = pattern
			return
		}
		profile.UseDefaults = true
		return
	}
	if pattern, ok := vibratePresets[preset]; ok && pattern != nil {
		profile.Vibration = append([]int(nil), pattern...)
		return
	}
	profile.UseDefaults = true
}

// resolveLED applies the LED enabled/color/pattern preferences.
// Params: category and profile under construction.
// Returns: profile updated in place with documented defaults on any
// unparseable custom value.
func (r *Resolver) resolveLED(category domain.Category, profile *domain.DeliveryProfile) {
	if !r.prefs.GetBool(prefs.CategoryKey(category, prefs.KeyLEDEnabled), true) {
		return
	}
	profile.LEDEnabled = true

	colorName := r.prefs.GetString(prefs.CategoryKey(category, prefs.KeyLEDColor), "blue")
	if colorName == presetCustom {
		raw := r.prefs.GetString(prefs.CategoryKey(category, prefs.KeyLEDColorCustom), "")
		if color, ok := ParseLEDColor(raw); ok {
			profile.LEDColor = color
		} else {
			profile.LEDColor = defaultLEDColor
		}
	} else if color, ok := ledColorPresets[colorName]; ok {
		profile.LEDColor = color
	} else {
		profile.LEDColor = defaultLEDColor
	}

	patternName := r.prefs.GetString(prefs.CategoryKey(category, prefs.KeyLEDPattern), "default")
	pair := defaultLEDPattern
	if patternName == presetCustom {
		raw := r.prefs.GetString(prefs.CategoryKey(category, prefs.KeyLEDPatternCustom), "")
		if on, off, ok := ParseLEDPattern(raw); ok {
			pair = [2]int{on, off}
		}
	} else if preset, ok := ledPatternPresets[patternName]; ok {
		pair = preset
	}
	profile.LEDOnMS = pair[0]
	profile.LEDOffMS = pair[1]
}

// resolveText fills title, body and ticker for one alert.
// Params: event, resolved sender, markup-stripped body, category spec
// and profile under construction.
// Returns: profile updated in place using a fixed template per
// category/sub-category/sender combination.
func resolveText(event domain.Event, from, body string, spec categorySpec, profile *domain.DeliveryProfile) {
	noun := eventNoun(event.Category, event.SubCategory)
	profile.TitleText = spec.Title

	switch {
	case event.Category == domain.CategoryMissedCall:
		profile.BodyText = fmt.Sprintf("Missed call from %s", from)
		profile.TickerText = profile.BodyText
	case event.Category == domain.CategoryCalendar:
		profile.BodyText = body
		profile.TickerText = fmt.Sprintf("New %s: %s", noun, body)
	case from == "":
		profile.BodyText = body
		profile.TickerText = fmt.Sprintf("New %s", noun)
	default:
		profile.BodyText = body
		profile.TickerText = fmt.Sprintf("New %s from %s", noun, from)
	}
}

// narrowForCall strips or reroutes effects while a call is active.
// Sound stays only with the in-call sound override and is then routed
// through explicit playback; vibration stays only with the in-call
// vibrate override and is then fired as a one-shot effect.
// Params: preference store, category and profile under construction.
// Returns: profile updated in place.
func narrowForCall(store prefs.Store, category domain.Category, profile *domain.DeliveryProfile) {
	if store.GetBool(prefs.CategoryKey(category, prefs.KeyInCallSound), false) {
		profile.InCallPlayback = profile.SoundRef != ""
	} else {
		profile.SoundRef = ""
	}
	if store.GetBool(prefs.CategoryKey(category, prefs.KeyInCallVibrate), false) {
		profile.OneShotVibrate = profile.Vibration != nil || profile.UseDefaults
	} else {
		profile.Vibration = nil
		profile.UseDefaults = false
	}
}
