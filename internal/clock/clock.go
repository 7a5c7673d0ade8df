package clock

import "time"

// Clock provides current time abstraction for deterministic tests.
// Params: none.
// Returns: current wall-clock time.
type Clock interface {
	Now() time.Time
}

// RealClock reads current device-local time from the system clock.
// Quiet-time windows and event timestamps are defined in local wall time,
// so the pipeline clock stays in the local zone.
type RealClock struct{}

// Now returns current local time.
// Params: none.
// Returns: current local-zone timestamp.
func (RealClock) Now() time.Time {
	return time.Now()
}
