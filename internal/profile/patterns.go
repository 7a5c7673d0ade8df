package profile

import (
	"strconv"
	"strings"
)

const (
	// maxEffectMS caps every vibration/LED duration token.
	maxEffectMS = 60000
	// maxVibrateEntries truncates oversized vibration patterns.
	maxVibrateEntries = 100
)

// ParseVibratePattern parses a comma-separated millisecond list.
// Each token is clamped to [0, 60000] and the pattern is truncated to
// 100 entries. Any unparseable token fails the whole pattern so the
// caller falls back to the device default instead of a partial one.
// Params: raw preference value like "0,1200,100,1200".
// Returns: parsed pattern and ok=false on any bad token or empty input.
func ParseVibratePattern(raw string) ([]int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	tokens := strings.Split(raw, ",")
	if len(tokens) > maxVibrateEntries {
		tokens = tokens[:maxVibrateEntries]
	}
	pattern := make([]int, 0, len(tokens))
	for _, token := range tokens {
		value, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil {
			return nil, false
		}
		pattern = append(pattern, clampMS(value))
	}
	return pattern, true
}

// ParseLEDPattern parses an "on_ms,off_ms" pair.
// Params: raw preference value like "1000,1000".
// Returns: clamped on/off durations and ok=false on wrong arity or bad
// tokens, in which case the caller uses device default LED behavior.
func ParseLEDPattern(raw string) (int, int, bool) {
	tokens := strings.Split(strings.TrimSpace(raw), ",")
	if len(tokens) != 2 {
		return 0, 0, false
	}
	on, err := strconv.Atoi(strings.TrimSpace(tokens[0]))
	if err != nil {
		return 0, 0, false
	}
	off, err := strconv.Atoi(strings.TrimSpace(tokens[1]))
	if err != nil {
		return 0, 0, false
	}
	return clampMS(on), clampMS(off), true
}

// ParseLEDColor parses a hex color value with an optional "#" or "0x" prefix.
// Params: raw preference value like "#FF00FF00".
// Returns: ARGB color and ok=false on parse failure.
func ParseLEDColor(raw string) (uint32, bool) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "#")
	raw = strings.TrimPrefix(raw, "0x")
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(value), true
}

// clampMS clamps one millisecond duration to the supported range.
// Params: parsed duration.
// Returns: value limited to [0, 60000].
func clampMS(value int) int {
	if value < 0 {
		return 0
	}
	if value > maxEffectMS {
		return maxEffectMS
	}
	return value
}
