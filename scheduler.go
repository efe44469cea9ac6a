package schedrt

import (
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler is a sharded priority multi-queue scheduler for a fixed
// pool of P workers (spec §1-§2). The zero value is not usable; use
// New.
type Scheduler struct {
	workers int

	queue       *multiQueue
	sleepState  *SleepState
	parkSlots   []*parkSlot
	workerRands []*workerRand

	sleepThreshold uint64
	timeSource     TimeSource
	gc             GC
	logger         Logger
	metrics        *Metrics

	eventLoop     EventLoop
	loopOwnership sync.Mutex

	// enqueueMu guards enqueueRand: workerRand is owned-by-one-worker and
	// not goroutine-safe, but Enqueue (unlike EnqueueFrom) may be called
	// concurrently by arbitrary external goroutines that aren't one of
	// the P dispatch-loop workers, so it gets its own serialized RNG
	// rather than borrowing a worker's.
	enqueueMu   sync.Mutex
	enqueueRand *workerRand

	stopped atomic.Bool

	// nextShardSeed is not read or written; New derives each worker's RNG
	// seed from the worker index and the current time.
	nextShardSeed uint64
}

// New constructs a Scheduler for the given number of workers. Shard
// count, per-shard capacity, heap arity, and the sleep threshold are
// fixed for the lifetime of the Scheduler (spec Non-goals: no dynamic
// resizing).
func New(workers int, opts ...Option) (*Scheduler, error) {
	if workers <= 0 {
		return nil, ErrNoWorkers
	}
	cfg := resolveConfig(workers, opts)

	shardCount := cfg.shardMultiplier * workers
	if shardCount < 1 {
		shardCount = 1
	}

	s := &Scheduler{
		workers:        workers,
		queue:          newMultiQueue(shardCount, cfg.shardCapacity, cfg.heapArity),
		sleepState:     NewSleepState(),
		parkSlots:      make([]*parkSlot, workers),
		workerRands:    make([]*workerRand, workers),
		sleepThreshold: cfg.sleepThreshold,
		timeSource:     cfg.timeSource,
		gc:             cfg.gc,
		logger:         cfg.logger,
	}
	if cfg.metricsEnabled {
		s.metrics = newMetrics()
	}
	s.enqueueRand = newWorkerRand(uint64(time.Now().UnixNano()) ^ 0xD1B54A32D192ED03)
	for i := 0; i < workers; i++ {
		s.parkSlots[i] = newParkSlot()
		s.workerRands[i] = newWorkerRand(uint64(i)*0x9E3779B97F4A7C15 + uint64(time.Now().UnixNano()))
	}
	return s, nil
}

// AttachEventLoop registers the single-threaded external event loop
// collaborator driven by step 6 of the dispatch loop. Optional — a
// Scheduler with no event loop simply skips straight from spinning to
// parking.
func (s *Scheduler) AttachEventLoop(loop EventLoop) { s.eventLoop = loop }

// Workers returns the configured worker count P.
func (s *Scheduler) Workers() int { return s.workers }

// Enqueue inserts task at its current priority, then wakes workers
// (spec §2 control flow: insert → wake): if the sleep state was not
// Awake, every parked worker is signalled. Returns ErrCapacityExceeded
// if the randomly sampled shard was full, or ErrStopped if Stop has
// been called.
//
// The scheduler itself never aborts the process on
// ErrCapacityExceeded — that policy decision belongs to the runtime
// embedding this package.
func (s *Scheduler) Enqueue(task Task) error {
	if s.stopped.Load() {
		return ErrStopped
	}
	priority := task.Priority()
	// enqueueRand is shared by every external caller of Enqueue (there is
	// no worker identity to hang a thread-local RNG off), so the whole
	// insert — including the shard-sampling RNG draws — is serialized
	// here. This never touches a worker's own dispatch-loop RNG or shard
	// locks any more than EnqueueFrom does; it only protects the one
	// non-goroutine-safe RNG instance against concurrent external
	// producers racing each other.
	s.enqueueMu.Lock()
	err := s.queue.insert(task, priority, s.enqueueRand)
	s.enqueueMu.Unlock()
	if err != nil {
		s.logger.Errorf("schedrt: enqueue failed: %v", err)
		return err
	}
	if s.metrics != nil {
		s.metrics.recordEnqueue()
	}
	s.wakeAny(noWorker)
	return nil
}

// EnqueueFrom is Enqueue called by worker self's own dispatch loop
// (e.g. re-enqueuing a yielded continuation), avoiding a shared RNG and
// skipping the self-wake.
func (s *Scheduler) EnqueueFrom(self int32, task Task) error {
	if s.stopped.Load() {
		return ErrStopped
	}
	priority := task.Priority()
	if err := s.queue.insert(task, priority, s.workerRands[self]); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.recordEnqueue()
	}
	s.wakeAny(self)
	return nil
}

// Wake ensures worker tid is not parked (spec §6 wake(tid)). A no-op,
// observable only through a benign extra condition-variable signal, if
// the worker was already awake.
func (s *Scheduler) Wake(tid int32) {
	slot := s.parkSlots[tid]
	slot.mu.Lock()
	slot.cond.Signal()
	slot.mu.Unlock()
}

// MarkEnqueued is the GC traversal hook (spec §4.8): invokes visitor for
// every task handle currently sitting in a shard. Must only be called
// from a stop-the-world phase.
func (s *Scheduler) MarkEnqueued(visitor func(Task)) {
	s.queue.markEnqueued(visitor)
}

// Metrics returns a snapshot of runtime statistics, or nil if metrics
// were not enabled via WithMetrics.
func (s *Scheduler) Metrics() *MetricsSnapshot {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.snapshot()
}

// Stop marks the scheduler stopped: further Enqueue calls return
// ErrStopped, Next returns nil, and every parked worker is woken so it
// can observe that.
func (s *Scheduler) Stop() {
	s.stopped.Store(true)
	s.wakeAny(noWorker)
}

// noWorker is passed as "self" when the caller is not one of the P
// dispatch-loop workers (e.g. an external Enqueue from an arbitrary
// goroutine), so wake never skips a signal it should send.
const noWorker int32 = -1
