package pipeline

import (
	"sync"

	"notifyd/internal/policy"
)

// DeviceStateSource holds the current device condition reported by
// external adapters: call state, foreground task, and ringer mode.
// Params: state snapshot guarded by RW mutex.
// Returns: shared device-state view consumed on every evaluation.
type DeviceStateSource struct {
	mu    sync.RWMutex
	state policy.DeviceState
}

// NewDeviceStateSource creates an idle-state source.
// Params: none.
// Returns: source reporting no call and no foreground task.
func NewDeviceStateSource() *DeviceStateSource {
	return &DeviceStateSource{}
}

// Snapshot returns the current device state.
// Params: none.
// Returns: copied state value.
func (s *DeviceStateSource) Snapshot() policy.DeviceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetCallActive records call start/end.
// Params: whether a call is in progress.
// Returns: nothing.
func (s *DeviceStateSource) SetCallActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CallActive = active
}

// SetForegroundTask records the running foreground task identity.
// Params: package and class of the foreground task; empty clears it.
// Returns: nothing.
func (s *DeviceStateSource) SetForegroundTask(pkg, class string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ForegroundPackage = pkg
	s.state.ForegroundClass = class
}

// SetVibrateRingerMode records the ringer mode.
// Params: whether the ringer is in vibrate mode.
// Returns: nothing.
func (s *DeviceStateSource) SetVibrateRingerMode(vibrate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.VibrateRingerMode = vibrate
}
