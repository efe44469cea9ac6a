//go:build !linux

package eventio

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by RunOnceBlocking/RunOnceNonblocking once Stop
// has been called.
var ErrClosed = errors.New("eventio: loop stopped")

// PortableLoop is a stdlib-only EventLoop: timers and cross-thread
// wakes via a buffered channel, no file-descriptor I/O. Mirrors the
// teacher event loop's fast-path shape (a single buffered
// fastWakeupCh plus a time.Timer deadline) without any of its
// Promise/microtask machinery, which this domain has no use for.
type PortableLoop struct {
	wakeCh  chan struct{}
	closed  atomic.Bool
	mu      sync.Mutex
	current *time.Timer
}

// New returns the portable EventLoop implementation for this platform.
// The error return exists for parity with the linux build's New, which
// can fail constructing its epoll instance; this variant never fails.
func New() (*PortableLoop, error) {
	return &PortableLoop{wakeCh: make(chan struct{}, 1)}, nil
}

// RunOnceBlocking waits until either CrossThreadWake is called, timeout
// elapses, or the loop is stopped.
func (l *PortableLoop) RunOnceBlocking(timeout time.Duration) error {
	if l.closed.Load() {
		return ErrClosed
	}
	timer := time.NewTimer(timeout)
	l.mu.Lock()
	l.current = timer
	l.mu.Unlock()
	defer timer.Stop()

	select {
	case <-l.wakeCh:
	case <-timer.C:
	}
	if l.closed.Load() {
		return ErrClosed
	}
	return nil
}

// RunOnceNonblocking drains a pending wake if one is queued, without
// waiting.
func (l *PortableLoop) RunOnceNonblocking() error {
	if l.closed.Load() {
		return ErrClosed
	}
	select {
	case <-l.wakeCh:
	default:
	}
	return nil
}

// Stop interrupts an in-progress RunOnceBlocking on the owning
// goroutine and marks the loop closed.
func (l *PortableLoop) Stop() {
	l.closed.Store(true)
	l.CrossThreadWake()
}

// CrossThreadWake is safe to call from any goroutine.
func (l *PortableLoop) CrossThreadWake() {
	select {
	case l.wakeCh <- struct{}{}:
	default:
		// Already has a pending wake queued; coalesce.
	}
}
