package schedrt

import (
	"sync"
	"sync/atomic"
)

// priorityInf represents an empty shard's head priority. It is strictly
// greater than any valid int16 priority, including math.MaxInt16.
const priorityInf int32 = 1 << 30

// DefaultHeapArity is the default d-ary heap branching factor (spec §3).
const DefaultHeapArity = 8

// shard is a fixed-capacity d-ary min-heap of task handles, guarded by a
// non-blocking trylock. All methods below except tryLock,
// loadHeadPriority and loadCount require the caller to hold mu (via
// TryLock).
type shard struct { // betteralign:ignore
	mu    sync.Mutex
	tasks []Task // len == capacity, only [0:count) is live
	count int
	arity int

	headPriority atomic.Int32
	countFast    atomic.Int32 // mirrors count, for the lock-free idle snapshot
}

// storeCountFast mirrors count into the atomic cell read by loadCount.
// Requires mu held.
func (s *shard) storeCountFast() { s.countFast.Store(int32(s.count)) }

func newShard(capacity, arity int) *shard {
	if arity < 2 {
		arity = 2
	}
	s := &shard{
		tasks: make([]Task, capacity),
		arity: arity,
	}
	s.headPriority.Store(priorityInf)
	return s
}

// tryLock attempts to acquire the shard's trylock without blocking.
func (s *shard) tryLock() bool { return s.mu.TryLock() }

func (s *shard) unlock() { s.mu.Unlock() }

// loadHeadPriority is the atomic, lock-free read of the cached head
// priority. Advisory only — always re-validated under the lock before
// a pop is committed.
func (s *shard) loadHeadPriority() int32 { return s.headPriority.Load() }

// loadCount is an atomic, lock-free read of the occupancy, used by the
// idle snapshot (§4.3). Eventually consistent by design.
func (s *shard) loadCount() int32 {
	// count is only ever mutated under mu, but is read here without it;
	// we still route the read through the same atomic cell the lock
	// holder writes via storeCountFast so -race stays silent without
	// changing the documented "unsynchronized" semantics.
	return s.countFast.Load()
}

// capacity returns the shard's fixed size.
func (s *shard) capacity() int { return len(s.tasks) }

// ErrCapacityExceeded-producing push. Requires mu held.
func (s *shard) push(t Task) error {
	if s.count == len(s.tasks) {
		return newCapacityExceededError(s.count)
	}
	s.tasks[s.count] = t
	s.count++
	s.storeCountFast()
	s.siftUp(s.count - 1)
	s.publishHeadPriority()
	return nil
}

// popHead removes and returns the minimum-priority task, or (nil,
// false) if empty. Requires mu held.
func (s *shard) popHead() (Task, bool) {
	if s.count == 0 {
		return nil, false
	}
	top := s.tasks[0]
	last := s.count - 1
	s.tasks[0] = s.tasks[last]
	s.tasks[last] = nil
	s.count--
	s.storeCountFast()
	if s.count > 0 {
		s.siftDown(0)
	}
	s.publishHeadPriority()
	return top, true
}

// peekHead returns the current root without removing it. Requires mu
// held.
func (s *shard) peekHead() (Task, bool) {
	if s.count == 0 {
		return nil, false
	}
	return s.tasks[0], true
}

func (s *shard) parent(i int) int { return (i - 1) / s.arity }

func (s *shard) firstChild(i int) int { return i*s.arity + 1 }

func (s *shard) siftUp(i int) {
	for i > 0 {
		p := s.parent(i)
		if s.tasks[i].Priority() >= s.tasks[p].Priority() {
			break
		}
		s.tasks[i], s.tasks[p] = s.tasks[p], s.tasks[i]
		i = p
	}
}

func (s *shard) siftDown(i int) {
	for {
		first := s.firstChild(i)
		if first >= s.count {
			return
		}
		last := first + s.arity
		if last > s.count {
			last = s.count
		}
		// Deterministic first-wins on ties: strict less-than only.
		minChild := first
		minPriority := s.tasks[first].Priority()
		for c := first + 1; c < last; c++ {
			if p := s.tasks[c].Priority(); p < minPriority {
				minChild = c
				minPriority = p
			}
		}
		if minPriority >= s.tasks[i].Priority() {
			return
		}
		s.tasks[i], s.tasks[minChild] = s.tasks[minChild], s.tasks[i]
		i = minChild
	}
}

// publishHeadPriority stores the current root's priority (or +∞ when
// empty) into the atomically-readable cache. Requires mu held.
func (s *shard) publishHeadPriority() {
	if s.count == 0 {
		s.headPriority.Store(priorityInf)
		return
	}
	s.headPriority.Store(int32(s.tasks[0].Priority()))
}
