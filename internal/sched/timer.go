package sched

import (
	"sync"
	"time"
)

// Timer is the one-shot wake facility used for deferred retries.
// A second ScheduleOneShot with the same key replaces the pending wake.
type Timer interface {
	ScheduleOneShot(key string, fireAt time.Time)
	Cancel(key string)
}

// RealTimer arms process-local one-shot timers keyed by work key.
// Params: fire callback invoked off the arming goroutine, pending map.
// Returns: Timer implementation backed by time.AfterFunc.
type RealTimer struct {
	mu      sync.Mutex
	fire    func(key string)
	pending map[string]*time.Timer
}

// NewRealTimer creates the process-local timer facility.
// Params: callback invoked with the work key when a wake fires.
// Returns: initialized timer.
func NewRealTimer(fire func(key string)) *RealTimer {
	return &RealTimer{fire: fire, pending: make(map[string]*time.Timer)}
}

// ScheduleOneShot arms a wake for the key, replacing any pending one.
// Params: work key and absolute fire time; past times fire immediately.
// Returns: nothing; the callback runs on the timer goroutine.
func (t *RealTimer) ScheduleOneShot(key string, fireAt time.Time) {
	delay := time.Until(fireAt)
	if delay < 0 {
		delay = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if pending, ok := t.pending[key]; ok {
		pending.Stop()
	}
	t.pending[key] = time.AfterFunc(delay, func() {
		t.mu.Lock()
		delete(t.pending, key)
		t.mu.Unlock()
		t.fire(key)
	})
}

// Cancel stops a pending wake if one exists.
// Params: work key.
// Returns: nothing; firing after Cancel is harmless because the store
// lookup misses.
func (t *RealTimer) Cancel(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pending, ok := t.pending[key]; ok {
		pending.Stop()
		delete(t.pending, key)
	}
}

// CancelAll stops every pending wake, used on shutdown.
// Params: none.
// Returns: nothing.
func (t *RealTimer) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, pending := range t.pending {
		pending.Stop()
		delete(t.pending, key)
	}
}
