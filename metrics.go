package schedrt

import "sync"

// Metrics accumulates runtime statistics for a Scheduler, enabled via
// WithMetrics(true). Counters are maintained with a single mutex rather
// than per-field atomics: every update already happens from inside
// Enqueue/Next, which are not themselves on any hot single-shard lock
// path, so the extra contention is negligible next to the cost of the
// P² updates it protects. Grounded on the teacher event loop's
// metrics.go, which wraps pSquareMultiQuantile the same way for task
// latency; here the tracked quantities are extract latency and
// observed shard depth at extract time.
type Metrics struct {
	mu sync.Mutex

	enqueueCount uint64
	extractCount uint64
	stickyCount  uint64
	parkCount    uint64

	extractLatency *psquareMultiQuantile
	shardDepth     *psquareMultiQuantile
}

// newMetrics constructs a Metrics tracking P50/P95/P99 of both extract
// latency (in NowCycles units) and observed shard depth at extract
// time.
func newMetrics() *Metrics {
	return &Metrics{
		extractLatency: newPSquareMultiQuantile(0.5, 0.95, 0.99),
		shardDepth:     newPSquareMultiQuantile(0.5, 0.95, 0.99),
	}
}

func (m *Metrics) recordEnqueue() {
	m.mu.Lock()
	m.enqueueCount++
	m.mu.Unlock()
}

func (m *Metrics) recordExtract() {
	m.mu.Lock()
	m.extractCount++
	m.mu.Unlock()
}

// recordExtractLatency folds a single extract's wait time (in
// NowCycles units) into the P50/P95/P99 estimators. Callers that don't
// track a start timestamp may skip this; recordExtract alone still
// keeps the raw count accurate.
func (m *Metrics) recordExtractLatency(cycles uint64) {
	m.mu.Lock()
	m.extractLatency.Update(float64(cycles))
	m.mu.Unlock()
}

// recordShardDepth folds the depth of the shard a task was just pulled
// from into the distribution, giving a running picture of queue
// occupancy under load.
func (m *Metrics) recordShardDepth(depth int) {
	m.mu.Lock()
	m.shardDepth.Update(float64(depth))
	m.mu.Unlock()
}

func (m *Metrics) recordSticky() {
	m.mu.Lock()
	m.stickyCount++
	m.mu.Unlock()
}

func (m *Metrics) recordPark() {
	m.mu.Lock()
	m.parkCount++
	m.mu.Unlock()
}

// MetricsSnapshot is a point-in-time copy of a Scheduler's accumulated
// statistics, safe to read without further synchronization.
type MetricsSnapshot struct {
	EnqueueCount uint64
	ExtractCount uint64
	StickyCount  uint64
	ParkCount    uint64

	ExtractLatencyP50 float64
	ExtractLatencyP95 float64
	ExtractLatencyP99 float64
	ExtractLatencyMax float64

	ShardDepthP50 float64
	ShardDepthP95 float64
	ShardDepthP99 float64
	ShardDepthMax float64
}

func (m *Metrics) snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &MetricsSnapshot{
		EnqueueCount: m.enqueueCount,
		ExtractCount: m.extractCount,
		StickyCount:  m.stickyCount,
		ParkCount:    m.parkCount,

		ExtractLatencyP50: m.extractLatency.Quantile(0),
		ExtractLatencyP95: m.extractLatency.Quantile(1),
		ExtractLatencyP99: m.extractLatency.Quantile(2),
		ExtractLatencyMax: m.extractLatency.Max(),

		ShardDepthP50: m.shardDepth.Quantile(0),
		ShardDepthP95: m.shardDepth.Quantile(1),
		ShardDepthP99: m.shardDepth.Quantile(2),
		ShardDepthMax: m.shardDepth.Max(),
	}
}
