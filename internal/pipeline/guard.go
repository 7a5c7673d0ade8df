package pipeline

import "sync"

// Guard is the wake-lock-equivalent resource held for the duration of a
// delivery unit of work, including scheduler wake callbacks. Release
// must run on every exit path.
type Guard interface {
	Acquire() (release func())
}

// NopGuard holds nothing.
type NopGuard struct{}

// Acquire returns a release that does nothing.
// Params: none.
// Returns: no-op release func.
func (NopGuard) Acquire() func() {
	return func() {}
}

// DrainGuard tracks in-flight delivery work so shutdown can wait for
// every held unit before closing renderers and stores.
// Params: wait group counting held units.
// Returns: guard usable as a graceful-shutdown barrier.
type DrainGuard struct {
	wg sync.WaitGroup
}

// NewDrainGuard creates the shutdown-aware guard.
// Params: none.
// Returns: initialized guard.
func NewDrainGuard() *DrainGuard {
	return &DrainGuard{}
}

// Acquire marks one unit of delivery work in flight.
// Params: none.
// Returns: release func safe to call exactly once.
func (g *DrainGuard) Acquire() func() {
	g.wg.Add(1)
	var once sync.Once
	return func() {
		once.Do(g.wg.Done)
	}
}

// Wait blocks until every held unit is released.
// Params: none.
// Returns: when all in-flight work has finished.
func (g *DrainGuard) Wait() {
	g.wg.Wait()
}
