package schedrt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestShardHeapOrderInvariant covers invariant 3: a d-ary heap always
// pops in non-decreasing priority order regardless of insertion order
// or arity.
func TestShardHeapOrderInvariant(t *testing.T) {
	for _, arity := range []int{2, 3, 8} {
		s := newShard(64, arity)
		require.True(t, s.tryLock())
		priorities := []int16{9, 1, 5, 3, 7, 0, 8, 2, 6, 4}
		for i, p := range priorities {
			require.NoError(t, s.push(newFakeTask(string(rune('a'+i)), p)))
		}

		var got []int16
		for s.count > 0 {
			task, ok := s.popHead()
			require.True(t, ok)
			got = append(got, task.Priority())
		}
		s.unlock()
		assert.True(t, sortedAscending(got), "arity %d: %v not sorted", arity, got)
	}
}

func sortedAscending(xs []int16) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i-1] > xs[i] {
			return false
		}
	}
	return true
}

// TestShardHeadPriorityCacheConsistency covers invariant 5: the
// atomically-readable head-priority cache always matches (or is never
// lower than) the true root priority after every mutation settles.
func TestShardHeadPriorityCacheConsistency(t *testing.T) {
	s := newShard(16, 4)
	require.True(t, s.tryLock())
	defer s.unlock()

	assert.Equal(t, priorityInf, s.loadHeadPriority())

	require.NoError(t, s.push(newFakeTask("a", 5)))
	assert.Equal(t, int32(5), s.loadHeadPriority())

	require.NoError(t, s.push(newFakeTask("b", 2)))
	assert.Equal(t, int32(2), s.loadHeadPriority())

	_, ok := s.popHead()
	require.True(t, ok)
	assert.Equal(t, int32(5), s.loadHeadPriority())

	_, ok = s.popHead()
	require.True(t, ok)
	assert.Equal(t, priorityInf, s.loadHeadPriority())
}

// TestShardPushCapacityExceeded verifies push fails once a fixed-size
// shard is full, without growing storage.
func TestShardPushCapacityExceeded(t *testing.T) {
	s := newShard(2, 4)
	require.True(t, s.tryLock())
	defer s.unlock()

	require.NoError(t, s.push(newFakeTask("a", 1)))
	require.NoError(t, s.push(newFakeTask("b", 2)))

	err := s.push(newFakeTask("c", 3))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

// TestShardCountFastMirrorsCount verifies the lock-free loadCount stays
// consistent with the lock-held count after push/pop.
func TestShardCountFastMirrorsCount(t *testing.T) {
	s := newShard(8, 4)
	require.True(t, s.tryLock())
	defer s.unlock()

	assert.Equal(t, int32(0), s.loadCount())
	require.NoError(t, s.push(newFakeTask("a", 1)))
	require.NoError(t, s.push(newFakeTask("b", 2)))
	assert.Equal(t, int32(2), s.loadCount())
	_, _ = s.popHead()
	assert.Equal(t, int32(1), s.loadCount())
}
