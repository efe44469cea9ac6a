package schedrt

// multiQueue is the sharded priority multi-queue from spec §4.2: a
// contiguous array of c*Workers shards. Insert samples one shard at
// random; extract samples two and takes whichever reports the lower
// (cached, advisory) head priority.
type multiQueue struct {
	shards []*shard
}

func newMultiQueue(shardCount, capacity, arity int) *multiQueue {
	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = newShard(capacity, arity)
	}
	return &multiQueue{shards: shards}
}

func (q *multiQueue) total() int { return len(q.shards) }

// insert assigns priority to task, samples a shard uniformly at random
// (retrying until a trylock succeeds), pushes under the lock, and
// opportunistically lowers the shard's published head-priority cache.
// rng must be owned exclusively by the calling worker.
func (q *multiQueue) insert(task Task, priority int16, rng *workerRand) error {
	task.SetPriority(priority)

	n := uint32(len(q.shards))
	var target *shard
	for {
		idx := rng.Uint32n(n)
		s := q.shards[idx]
		if s.tryLock() {
			target = s
			break
		}
		// Trylock failed: resample rather than wait, so a worker never
		// blocks behind another that merely holds a shard briefly.
	}

	err := target.push(task)
	target.unlock()
	if err != nil {
		return err
	}

	// Benign race: this CAS runs after the unlock, so an extractor may
	// pop the task first and the CAS can then leave the cache below the
	// true head (stale-low). extract re-validates under the lock and
	// republishes the true head on a mismatch, so a stale value costs
	// at most one extra sample.
	for {
		cur := target.loadHeadPriority()
		if int32(priority) >= cur {
			break
		}
		if target.headPriority.CompareAndSwap(cur, int32(priority)) {
			break
		}
	}

	return nil
}

// extract performs delete-min via two-choice sampling (spec §4.2).
// Returns (nil, false, 0) if no task could be claimed within P_total
// attempts (treated as "multi-queue empty" by the caller). depth is the
// winning shard's occupancy just before the pop, for metrics.
func (q *multiQueue) extract(self int32, rng *workerRand) (task Task, ok bool, depth int) {
	n := uint32(len(q.shards))
	if n == 0 {
		return nil, false, 0
	}
	attempts := len(q.shards)
	if n == 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		var a, b uint32
		if n == 1 {
			a, b = 0, 0
		} else {
			a, b = rng.twoDistinct(n)
		}
		sa, sb := q.shards[a], q.shards[b]
		pa, pb := sa.loadHeadPriority(), sb.loadHeadPriority()

		if pa == priorityInf && pb == priorityInf {
			continue
		}

		best := sa
		bestPriority := pa
		if pb < pa {
			best = sb
			bestPriority = pb
		}

		if !best.tryLock() {
			continue
		}

		// Re-validate: the cached priority may be stale by the time we
		// got the lock. On a mismatch, publish the true head so the
		// stale value does not keep attracting samples.
		head, ok := best.peekHead()
		if !ok || int32(head.Priority()) != bestPriority {
			best.publishHeadPriority()
			best.unlock()
			continue
		}

		if head.OwnerTID() != self {
			if !head.ClaimOwner(self) {
				// Another worker already claimed it first.
				best.unlock()
				continue
			}
		}

		prePopDepth := int(best.loadCount())
		t, _ := best.popHead()
		best.unlock()
		return t, true, prePopDepth
	}

	return nil, false, 0
}

// snapshot implements the idle-snapshot procedure from spec §4.3: true
// iff every shard's count is currently zero. Unsynchronized by design —
// see shard.loadCount.
func (q *multiQueue) snapshot() bool {
	for _, s := range q.shards {
		if s.loadCount() != 0 {
			return false
		}
	}
	return true
}

// markEnqueued implements the GC traversal hook from spec §4.8. Must
// only be called from a stop-the-world phase: no locks are taken, and
// the caller guarantees no mutator is concurrently modifying shards.
func (q *multiQueue) markEnqueued(visitor func(Task)) {
	for _, s := range q.shards {
		for i := 0; i < s.count; i++ {
			visitor(s.tasks[i])
		}
	}
}
