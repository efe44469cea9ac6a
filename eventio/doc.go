// Package eventio provides default, ready-to-use EventLoop
// implementations satisfying schedrt.EventLoop, so a Scheduler can be
// exercised end-to-end (timers, cross-thread wakes, and on Linux, I/O
// readiness) without every integrator writing their own loop.
//
// New returns the best available loop for the current platform: on
// linux, an epoll+eventfd-backed loop also exposing RegisterFD /
// UnregisterFD; elsewhere, a portable loop backed only by a channel and
// a time.Timer, sufficient for timers and cross-thread wakes but with
// no file-descriptor I/O support.
//
// Kept deliberately outside the schedrt package itself (schedrt does
// not import eventio) so embedders supplying their own loop never link
// epoll syscalls they don't use.
package eventio
