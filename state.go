package schedrt

import "sync/atomic"

// SleepPhase is one of the three values of the global sleep-check
// state machine (spec §4.4).
//
// State Machine:
//
//	Awake ──(CAS)──▶ Checking
//	Checking ──(store)──▶ Awake      (snapshot saw work)
//	Checking ──(CAS)──▶ Asleep       (snapshot was clean)
//	Asleep ──(exchange)──▶ Awake     (any enqueuer/waker)
//
// Use TryTransition (CAS) for the two temporary-state edges; Awake is
// reachable either via Store (the "snapshot saw work" rollback, made
// only by the holder of Checking) or via Exchange (the wake path),
// since any thread may need to force it.
type SleepPhase uint32

const (
	// Awake is the default: at least one worker is expected to be
	// actively looking for work, or recently was.
	Awake SleepPhase = iota
	// Checking means exactly one worker is mid-snapshot, deciding
	// whether it is safe to park. Other would-be sleepers must spin
	// until this settles.
	Checking
	// Asleep means the last snapshot was clean and no worker has since
	// observed new work; parked workers wait while this holds.
	Asleep
)

func (s SleepPhase) String() string {
	switch s {
	case Awake:
		return "Awake"
	case Checking:
		return "Checking"
	case Asleep:
		return "Asleep"
	default:
		return "Unknown"
	}
}

// SleepState is a lock-free tri-state machine with cache-line padding
// to keep it off the same line as any other hot field. Adapted from the
// three-state CAS machine in the teacher event loop's FastState, which
// solved the identical "decide to park without a missed wakeup" problem
// for a single loop goroutine; here it gates an entire pool of workers.
type SleepState struct { // betteralign:ignore
	_ [64]byte
	v atomic.Uint32
	_ [60]byte
}

// NewSleepState returns a state machine initialized to Awake.
func NewSleepState() *SleepState {
	s := &SleepState{}
	s.v.Store(uint32(Awake))
	return s
}

// Load atomically reads the current phase.
func (s *SleepState) Load() SleepPhase { return SleepPhase(s.v.Load()) }

// Store unconditionally sets the phase. Valid only for the
// Checking→Awake rollback edge, where the caller is the sole holder of
// Checking and a plain store cannot race.
func (s *SleepState) Store(phase SleepPhase) { s.v.Store(uint32(phase)) }

// TryTransition attempts an atomic CAS from one phase to another.
func (s *SleepState) TryTransition(from, to SleepPhase) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

// Exchange unconditionally swaps in a new phase and returns the
// previous one. Used by the wake path (§4.5 wake_any), which must know
// whether anyone was Checking or Asleep in order to decide whether a
// broadcast is needed.
func (s *SleepState) Exchange(phase SleepPhase) SleepPhase {
	return SleepPhase(s.v.Swap(uint32(phase)))
}

// sleepDecision is the result of sleepCheckNow: whether the caller may
// safely proceed to park.
type sleepDecision int

const (
	doNotSleep sleepDecision = iota
	safeToSleep
)

// sleepCheckNow runs the protocol from spec §4.4 step-for-step. snapshot
// is called only from inside the Checking window, exactly once per
// successful CAS into Checking.
func sleepCheckNow(state *SleepState, snapshot func() bool) sleepDecision {
	for {
		switch state.Load() {
		case Checking:
			// Spin-wait (tight atomic load) until it leaves Checking.
			for state.Load() == Checking {
				spinHint()
			}
			if state.Load() == Asleep {
				return safeToSleep
			}
			return doNotSleep

		case Awake:
			if !state.TryTransition(Awake, Checking) {
				continue // lost the race; restart from the top
			}
			if snapshot() {
				// Snapshot saw work: roll back. Plain store is safe —
				// only this caller holds Checking.
				state.Store(Awake)
				return doNotSleep
			}
			if state.TryTransition(Checking, Asleep) {
				return safeToSleep
			}
			// Someone (wake) already forced Awake via Exchange while we
			// were mid-snapshot; honor that instead of overwriting it.
			return doNotSleep

		case Asleep:
			return safeToSleep

		default:
			return doNotSleep
		}
	}
}
