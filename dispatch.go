package schedrt

import "time"

// spinPumpInterval is how many spins elapse between opportunistic,
// non-blocking event-loop pumps during the spin phase (spec §4.6 step
// 4: "after every ~1000 spins").
const spinPumpInterval = 1000

// Next is the worker dispatch loop from spec §4.6: the procedure a
// worker runs to obtain its next task. It blocks until a task is
// claimed, trying in order: a safepoint, the sticky probe, a
// multi-queue extract, a bounded spin (with an opportunistic
// non-blocking event-loop pump), the sleep-check protocol, a single
// blocking event-loop iteration if this worker wins loop ownership,
// and finally parking.
//
// self is the calling worker's id in [0, Workers()). sticky may be nil.
func (s *Scheduler) Next(self int32, sticky StickyGetter) Task {
	rng := s.workerRands[self]
	var spins uint64
	var t0 uint64
	haveT0 := false

	for {
		// 1. Safepoint: give the GC a chance to coordinate.
		s.gc.Safepoint()

		if s.stopped.Load() {
			return nil
		}

		// 2. Sticky probe.
		if sticky != nil {
			if task, ok := sticky(self); ok {
				if task.OwnerTID() != self {
					task.ClaimOwner(self)
				}
				if s.metrics != nil {
					s.metrics.recordSticky()
				}
				return task
			}
		}

		// 3. Multi-queue extract.
		if task, ok, depth := s.queue.extract(self, rng); ok {
			if s.metrics != nil {
				s.metrics.recordExtract()
				s.metrics.recordShardDepth(depth)
				if haveT0 {
					s.metrics.recordExtractLatency(s.timeSource.NowCycles() - t0)
				}
			}
			return task
		}

		// 4. Spin.
		spinHint()
		spins++
		if !haveT0 {
			t0 = s.timeSource.NowCycles()
			haveT0 = true
		}

		if spins%spinPumpInterval == 0 {
			if s.pumpEventLoopNonblocking() {
				if task, ok, depth := s.queue.extract(self, rng); ok {
					if s.metrics != nil {
						s.metrics.recordExtract()
						s.metrics.recordShardDepth(depth)
						s.metrics.recordExtractLatency(s.timeSource.NowCycles() - t0)
					}
					return task
				}
			}
		}

		// 5. Threshold check.
		if s.sleepThreshold == 0 {
			continue // spin forever: latency-critical configuration
		}
		now := s.timeSource.NowCycles()
		if now-t0 < s.sleepThreshold {
			continue
		}

		// sleepCheckNow's snapshot callback means "work was seen" — the
		// inverse of multiQueue.snapshot's "all shards empty".
		decision := sleepCheckNow(s.sleepState, func() bool { return !s.queue.snapshot() })
		if decision != safeToSleep {
			continue
		}

		// 6. Event-loop ownership: the sleep winner gets first refusal
		// at running one blocking iteration instead of parking outright.
		if s.tryRunEventLoopBlocking() {
			if task, ok, depth := s.queue.extract(self, rng); ok {
				if s.metrics != nil {
					s.metrics.recordExtract()
					s.metrics.recordShardDepth(depth)
					s.metrics.recordExtractLatency(s.timeSource.NowCycles() - t0)
				}
				haveT0 = false
				return task
			}
			continue
		}

		// 7. Park.
		if s.metrics != nil {
			s.metrics.recordPark()
		}
		s.park(self)
		haveT0 = false
	}
}

// pumpEventLoopNonblocking opportunistically drains whatever is
// immediately ready on the event loop, without blocking, if this worker
// can win loop ownership. Returns true if it actually ran a pump.
func (s *Scheduler) pumpEventLoopNonblocking() bool {
	if s.eventLoop == nil {
		return false
	}
	if !s.loopOwnership.TryLock() {
		return false // LOOP_OWNERSHIP_LOST (spec §7): fall through, do not block
	}
	defer s.loopOwnership.Unlock()
	if err := s.eventLoop.RunOnceNonblocking(); err != nil {
		s.logger.Warnf("schedrt: event loop nonblocking pump error: %v", err)
	}
	return true
}

// tryRunEventLoopBlocking attempts to win event-loop ownership and run
// exactly one blocking iteration (spec §4.7). Losers fall through to
// park. Returns true if this call ran (and released) the loop.
func (s *Scheduler) tryRunEventLoopBlocking() bool {
	if s.eventLoop == nil {
		return false
	}
	if !s.loopOwnership.TryLock() {
		return false
	}
	defer s.loopOwnership.Unlock()
	if err := s.eventLoop.RunOnceBlocking(defaultLoopBlockingBudget); err != nil {
		s.logger.Warnf("schedrt: event loop blocking pump error: %v", err)
	}
	return true
}

// defaultLoopBlockingBudget bounds how long the loop-owning worker may
// block inside RunOnceBlocking before re-checking for runnable tasks.
const defaultLoopBlockingBudget = 10 * time.Millisecond
