package schedrt

import "time"

// Unowned is the owner_tid sentinel meaning "no worker has claimed this task."
const Unowned int32 = -1

// Task is the scheduler's view of a runtime task. The scheduler never
// allocates, frees, or executes a Task; it only moves handles between
// shards. Implementations must make Priority/SetPriority safe to call
// only while the task is not concurrently being mutated by another
// shard operation (the scheduler enforces this by only ever touching a
// task while holding the shard lock it currently lives in, or after
// having won the ClaimOwner race), and must make OwnerTID/ClaimOwner
// safe for concurrent use from any goroutine.
type Task interface {
	// Priority returns the task's current priority; smaller is higher
	// priority.
	Priority() int16

	// SetPriority assigns the task's priority. Called once, by the
	// scheduler, at enqueue time.
	SetPriority(priority int16)

	// OwnerTID atomically loads the id of the worker that has claimed
	// this task, or Unowned.
	OwnerTID() int32

	// ClaimOwner attempts to atomically transition the owner from
	// Unowned to self. Returns true if this call performed the
	// transition (i.e. won the race).
	ClaimOwner(self int32) bool
}

// TimeSource supplies a monotonic cycle counter to the dispatch loop's
// sleep-threshold check. Production callers typically wrap
// time.Now().UnixNano() or a CPU cycle counter; tests can substitute a
// fake clock.
type TimeSource interface {
	// NowCycles returns a monotonically non-decreasing counter.
	NowCycles() uint64
}

// timeSourceFunc adapts a function to TimeSource.
type timeSourceFunc func() uint64

func (f timeSourceFunc) NowCycles() uint64 { return f() }

// realTimeStart is the epoch realTimeSource counts from.
var realTimeStart = time.Now()

// realTimeSource drives NowCycles from the monotonic clock, expressed in
// nanoseconds since package initialization, which is the natural
// "cycle" unit for a threshold set via WithSleepThresholdDuration.
var realTimeSource TimeSource = timeSourceFunc(func() uint64 {
	return uint64(time.Since(realTimeStart))
})

// EventLoop is the single-threaded external event loop collaborator:
// timers, I/O, and asynchronous callbacks. The scheduler never creates
// one; it only drives an existing instance, and only while holding its
// internal loop-ownership trylock, satisfying "exactly one worker at a
// time owns and drives the loop."
type EventLoop interface {
	// RunOnceBlocking runs one iteration of the loop, blocking for up to
	// timeout waiting for an event (a timer firing, I/O readiness, or a
	// CrossThreadWake from another goroutine). Implementations should
	// return promptly once any such event occurs or the loop is stopped.
	RunOnceBlocking(timeout time.Duration) error

	// RunOnceNonblocking runs one iteration without blocking, draining
	// whatever is immediately ready.
	RunOnceNonblocking() error

	// Stop interrupts a RunOnceBlocking call in progress on the same
	// goroutine that owns the loop. Called by the owner itself, never
	// cross-thread (use CrossThreadWake for that).
	Stop()

	// CrossThreadWake interrupts a RunOnceBlocking call in progress on
	// another goroutine. Safe to call from any goroutine, including one
	// that does not currently own the loop.
	CrossThreadWake()
}

// GC is the garbage collector's safepoint protocol, consumed by the
// dispatch loop: a safepoint at the top of every iteration and a safe
// region around parking. A blocking event-loop iteration is not wrapped
// in a safe region.
type GC interface {
	// Safepoint gives the collector a chance to coordinate a
	// stop-the-world pause. Called at the top of every dispatch
	// iteration.
	Safepoint()

	// EnterSafeRegion declares that the calling worker is about to
	// block (park) and will not touch Go-managed memory until
	// LeaveSafeRegion.
	EnterSafeRegion()

	// LeaveSafeRegion reverses EnterSafeRegion.
	LeaveSafeRegion()
}

// noopGC implements GC with no-ops, used when the caller has no
// collector to coordinate with.
type noopGC struct{}

func (noopGC) Safepoint()       {}
func (noopGC) EnterSafeRegion() {}
func (noopGC) LeaveSafeRegion() {}

// StickyGetter returns a task pinned to the calling worker (e.g. a
// resumed continuation with an already-claimed stack), bypassing the
// multi-queue entirely. A nil StickyGetter, or one that always returns
// (nil, false), disables stickiness.
type StickyGetter func(workerTID int32) (task Task, ok bool)
