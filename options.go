package schedrt

import "time"

// config holds resolved construction options for a Scheduler.
type config struct {
	workers         int
	shardMultiplier int
	shardCapacity   int
	heapArity       int
	sleepThreshold  uint64
	logger          Logger
	metricsEnabled  bool
	timeSource      TimeSource
	gc              GC
}

// DefaultShardMultiplier is the "c" constant from spec §1: shard count
// is c*Workers.
const DefaultShardMultiplier = 4

// DefaultShardCapacity is the fixed per-shard capacity used when
// WithShardCapacity is not given.
const DefaultShardCapacity = 4096

// Option configures a Scheduler at construction time. Adapted from the
// teacher event loop's LoopOption/loopOptionImpl functional-options
// pattern.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithShardMultiplier sets c, the number of shards per worker
// (Shards = c * Workers). Must be >= 1; values < 1 are clamped to 1.
func WithShardMultiplier(c int) Option {
	return optionFunc(func(cfg *config) {
		if c < 1 {
			c = 1
		}
		cfg.shardMultiplier = c
	})
}

// WithShardCapacity sets the fixed per-shard capacity. Shard capacity
// never grows (spec Non-goals); exceeding it returns
// ErrCapacityExceeded from Enqueue.
func WithShardCapacity(n int) Option {
	return optionFunc(func(cfg *config) {
		if n < 1 {
			n = 1
		}
		cfg.shardCapacity = n
	})
}

// WithHeapArity sets d, the d-ary heap branching factor.
func WithHeapArity(d int) Option {
	return optionFunc(func(cfg *config) {
		if d < 2 {
			d = 2
		}
		cfg.heapArity = d
	})
}

// WithSleepThreshold sets the cycle count (§3) a worker must spin for
// before attempting to park. A value of 0 means "infinite" — workers
// never park and spin forever (latency-critical configurations).
func WithSleepThreshold(threshold uint64) Option {
	return optionFunc(func(cfg *config) { cfg.sleepThreshold = threshold })
}

// WithSleepThresholdDuration is WithSleepThreshold expressed in
// wall-clock time, for callers using the default TimeSource (which
// reports nanoseconds since an arbitrary epoch).
func WithSleepThresholdDuration(d time.Duration) Option {
	return WithSleepThreshold(uint64(d.Nanoseconds()))
}

// WithLogger attaches a structured logger. Defaults to a no-op.
func WithLogger(l Logger) Option {
	return optionFunc(func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	})
}

// WithMetrics enables runtime metrics collection, retrievable via
// Scheduler.Metrics.
func WithMetrics(enabled bool) Option {
	return optionFunc(func(cfg *config) { cfg.metricsEnabled = enabled })
}

// WithTimeSource overrides the monotonic cycle source used by the
// sleep-threshold check. Intended for deterministic tests.
func WithTimeSource(ts TimeSource) Option {
	return optionFunc(func(cfg *config) {
		if ts != nil {
			cfg.timeSource = ts
		}
	})
}

// WithGC attaches a garbage-collector safepoint/safe-region
// collaborator. Defaults to a no-op.
func WithGC(gc GC) Option {
	return optionFunc(func(cfg *config) {
		if gc != nil {
			cfg.gc = gc
		}
	})
}

func resolveConfig(workers int, opts []Option) *config {
	cfg := &config{
		workers:         workers,
		shardMultiplier: DefaultShardMultiplier,
		shardCapacity:   DefaultShardCapacity,
		heapArity:       DefaultHeapArity,
		logger:          noopLogger{},
		timeSource:      realTimeSource,
		gc:              noopGC{},
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o.apply(cfg)
	}
	return cfg
}
