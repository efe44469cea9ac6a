package schedrt

import "sync"

// parkSlot is one worker's blocking primitive: a mutex + condition
// variable pair, indexed by worker id (spec §3). New creates every
// worker's slot up front; slots are not created lazily.
// Accessed from other workers only while holding its mutex, so a signal
// can never be lost against a concurrent park that has observed Asleep
// but not yet begun waiting.
type parkSlot struct {
	mu   sync.Mutex
	cond *sync.Cond
}

func newParkSlot() *parkSlot {
	p := &parkSlot{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// park blocks the calling worker until the scheduler's sleep state
// leaves Asleep. Wraps the wait in the GC's safe-region protocol, per
// spec §4.5.
func (s *Scheduler) park(self int32) {
	slot := s.parkSlots[self]
	s.gc.EnterSafeRegion()
	slot.mu.Lock()
	for s.sleepState.Load() == Asleep {
		slot.cond.Wait()
	}
	slot.mu.Unlock()
	s.gc.LeaveSafeRegion()
}

// wake ensures a specific worker is not parked. Matching spec §4.5: the
// mutex is held around the signal so it can't be lost to a concurrent
// park.
func (s *Scheduler) wake(self, target int32) {
	if self == target {
		return
	}
	slot := s.parkSlots[target]
	slot.mu.Lock()
	slot.cond.Signal()
	slot.mu.Unlock()
}

// wakeAny implements spec §4.5's wake_any: force the global sleep state
// to Awake and, if anyone was Checking or Asleep, broadcast to every
// other worker's park slot. Also kicks the event loop so a worker
// blocked inside it (rather than parked) notices new work.
func (s *Scheduler) wakeAny(self int32) {
	prev := s.sleepState.Exchange(Awake)
	if prev == Awake {
		return
	}
	for tid := range s.parkSlots {
		if int32(tid) == self {
			continue
		}
		slot := s.parkSlots[tid]
		slot.mu.Lock()
		slot.cond.Broadcast()
		slot.mu.Unlock()
	}
	if s.eventLoop != nil {
		s.eventLoop.CrossThreadWake()
	}
}
