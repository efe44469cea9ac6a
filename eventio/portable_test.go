//go:build !linux

package eventio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortableLoopCrossThreadWakeUnblocksRunOnceBlocking(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- l.RunOnceBlocking(time.Minute)
	}()

	time.Sleep(10 * time.Millisecond)
	l.CrossThreadWake()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunOnceBlocking did not return after CrossThreadWake")
	}
}

func TestPortableLoopRunOnceBlockingRespectsTimeout(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	start := time.Now()
	require.NoError(t, l.RunOnceBlocking(20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestPortableLoopStopReturnsErrClosed(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	l.Stop()
	assert.ErrorIs(t, l.RunOnceBlocking(time.Second), ErrClosed)
	assert.ErrorIs(t, l.RunOnceNonblocking(), ErrClosed)
}

func TestPortableLoopNonblockingDrainsPendingWake(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	l.CrossThreadWake()
	require.Equal(t, 1, len(l.wakeCh))
	require.NoError(t, l.RunOnceNonblocking())
	assert.Equal(t, 0, len(l.wakeCh))
}
