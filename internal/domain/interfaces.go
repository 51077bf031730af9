package domain

import "time"

// ─── Boundary Interfaces ────────────────────────────────────────────────────
// Infrastructure implements these; the engine depends only on the interfaces.

// Clock abstracts time so the session controller and stores stay
// deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }
