// Package schedrt implements a work-stealing-style multi-queue task
// scheduler for a fixed pool of OS worker threads.
//
// # Architecture
//
// Runnable tasks live in a sharded collection of per-shard d-ary priority
// heaps ([multiQueue]). A worker that needs work samples two shards at
// random and extracts from whichever reports the lower head priority
// ([multiQueue.extract]); an enqueuer picks one random shard and pushes
// into it ([multiQueue.insert]). Neither operation ever blocks: both use
// trylock-with-resample on contention.
//
// When no shard has work, a worker runs the sleep-check protocol
// ([SleepState]) to decide whether it is safe to park on its
// [parkSlot]'s condition variable without missing a concurrent enqueue.
// Exactly one worker at a time may block inside the externally supplied
// [EventLoop] while waiting; ownership of that loop is itself a trylock
// so that a busy loop never stalls other workers from parking.
//
// # What this package does not do
//
// It does not create, execute, or free tasks — it stores opaque [Task]
// handles. It does not implement a VM, a garbage collector, or an event
// loop; those are external collaborators consumed through the interfaces
// in collaborators.go. A minimal, runnable [EventLoop] implementation is
// provided in the sibling eventio package for callers who don't already
// have one.
//
// # Usage
//
//	sched, err := schedrt.New(4)
//	sched.Enqueue(myTask)
//	t := sched.Next(0, nil) // blocks until a task is claimed by worker 0
package schedrt
