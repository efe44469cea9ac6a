package schedrt

import (
	"errors"
	"fmt"
)

// Standard errors. Matches the teacher event loop's sentinel-error
// convention (var block of errors.New, wrapped with fmt.Errorf("%w")
// where extra context is needed) rather than a bespoke error-code type.
var (
	// ErrCapacityExceeded is returned by Enqueue when the randomly
	// sampled shard is full (other shards are not tried). Per spec §7 this indicates a fixed-capacity
	// misconfiguration; the scheduler itself never aborts the process —
	// that policy decision is left to the caller.
	ErrCapacityExceeded = errors.New("schedrt: shard capacity exceeded")

	// ErrNoWorkers is returned by New if workers <= 0.
	ErrNoWorkers = errors.New("schedrt: workers must be > 0")

	// ErrStopped is returned by Enqueue and EnqueueFrom after Stop has
	// been called. Next reports a stopped scheduler by returning nil.
	ErrStopped = errors.New("schedrt: scheduler stopped")
)

// newCapacityExceededError wraps ErrCapacityExceeded with the shard's
// occupancy for diagnostics, while remaining errors.Is-compatible.
func newCapacityExceededError(count int) error {
	return fmt.Errorf("%w: shard at count %d", ErrCapacityExceeded, count)
}
