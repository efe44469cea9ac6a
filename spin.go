package schedrt

import "runtime"

// spinHint yields the processor for one iteration of a busy-wait loop.
// Kept as its own function so platforms with a true pause instruction
// (via runtime internals) can swap the implementation without touching
// call sites.
func spinHint() { runtime.Gosched() }
