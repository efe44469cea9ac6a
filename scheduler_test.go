package schedrt

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTask is the minimal Task implementation used across the test
// suite: an id for assertions, a priority, and an owner CAS cell.
type fakeTask struct {
	id       string
	priority int32 // stored as int32 so atomic CAS is available; narrowed to int16 on read
	owner    atomic.Int32
}

func newFakeTask(id string, priority int16) *fakeTask {
	t := &fakeTask{id: id, priority: int32(priority)}
	t.owner.Store(Unowned)
	return t
}

func (t *fakeTask) Priority() int16        { return int16(atomic.LoadInt32(&t.priority)) }
func (t *fakeTask) SetPriority(p int16)     { atomic.StoreInt32(&t.priority, int32(p)) }
func (t *fakeTask) OwnerTID() int32         { return t.owner.Load() }
func (t *fakeTask) ClaimOwner(self int32) bool {
	return t.owner.CompareAndSwap(Unowned, self)
}

// fakeTime is a manually-advanced TimeSource for deterministic
// sleep-threshold tests.
type fakeTime struct {
	cycles atomic.Uint64
}

func (f *fakeTime) NowCycles() uint64 { return f.cycles.Load() }
func (f *fakeTime) advance(n uint64)  { f.cycles.Add(n) }

// TestSingleThreadedPriorityOrdering covers invariant S1: with a single
// worker and WithShardMultiplier(1), tasks enqueued out of priority
// order are always extracted lowest-priority-first, since every task
// lands in the one shard and that shard's heap pops in priority order.
func TestSingleThreadedPriorityOrdering(t *testing.T) {
	s, err := New(1, WithShardMultiplier(1))
	require.NoError(t, err)

	priorities := []int16{5, 1, 3, 2, 4}
	for i, p := range priorities {
		require.NoError(t, s.Enqueue(newFakeTask(string(rune('a'+i)), p)))
	}

	var got []int16
	for i := 0; i < len(priorities); i++ {
		task := s.Next(0, nil)
		require.NotNil(t, task)
		got = append(got, task.Priority())
	}
	assert.Equal(t, []int16{1, 2, 3, 4, 5}, got)
}

// TestStickyTaskBypassesMultiQueue covers S3: a StickyGetter returning a
// task must be preferred over anything sitting in the shards, and the
// sticky task must end up owned by the calling worker.
func TestStickyTaskBypassesMultiQueue(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)

	queued := newFakeTask("queued", 1)
	require.NoError(t, s.Enqueue(queued))

	sticky := newFakeTask("sticky", 100)
	getter := StickyGetter(func(workerTID int32) (Task, bool) {
		return sticky, true
	})

	got := s.Next(0, getter)
	require.NotNil(t, got)
	assert.Equal(t, sticky, got)
	assert.Equal(t, int32(0), sticky.OwnerTID())

	// Sticky exhausted: falls through to the multi-queue.
	getter2 := StickyGetter(func(int32) (Task, bool) { return nil, false })
	got2 := s.Next(0, getter2)
	assert.Equal(t, queued, got2)
}

// TestEnqueueCapacityExceeded covers S5: once every shard a worker could
// plausibly land in is full, Enqueue must return ErrCapacityExceeded
// rather than growing storage or blocking.
func TestEnqueueCapacityExceeded(t *testing.T) {
	s, err := New(1, WithShardMultiplier(1), WithShardCapacity(2))
	require.NoError(t, err)

	require.NoError(t, s.Enqueue(newFakeTask("a", 1)))
	require.NoError(t, s.Enqueue(newFakeTask("b", 2)))

	err = s.Enqueue(newFakeTask("c", 3))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

// TestStopRejectsFurtherWork verifies ErrStopped is returned by Enqueue
// after Stop, and that a Next call made after Stop returns nil rather
// than hanging forever.
func TestStopRejectsFurtherWork(t *testing.T) {
	s, err := New(2, WithSleepThresholdDuration(time.Microsecond))
	require.NoError(t, err)

	s.Stop()
	err = s.Enqueue(newFakeTask("late", 1))
	assert.ErrorIs(t, err, ErrStopped)

	done := make(chan struct{})
	go func() {
		task := s.Next(0, nil)
		assert.Nil(t, task)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Next did not return after Stop")
	}
}

// TestMetricsSnapshotTracksCounts verifies WithMetrics(true) wires
// enqueue/extract counters through to Metrics().
func TestMetricsSnapshotTracksCounts(t *testing.T) {
	s, err := New(1, WithMetrics(true))
	require.NoError(t, err)

	require.NoError(t, s.Enqueue(newFakeTask("a", 1)))
	require.NoError(t, s.Enqueue(newFakeTask("b", 2)))
	s.Next(0, nil)

	snap := s.Metrics()
	require.NotNil(t, snap)
	assert.Equal(t, uint64(2), snap.EnqueueCount)
	assert.Equal(t, uint64(1), snap.ExtractCount)
}

// TestMetricsNilWhenDisabled verifies Metrics() returns nil when
// WithMetrics was never set.
func TestMetricsNilWhenDisabled(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)
	assert.Nil(t, s.Metrics())
}

func TestNewRejectsNonPositiveWorkers(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, ErrNoWorkers)

	_, err = New(-1)
	assert.ErrorIs(t, err, ErrNoWorkers)
}
