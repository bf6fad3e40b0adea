package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/typegraph-io/typegraph/pkg/cache"
)

// Collector collects and aggregates metrics for catalog operations.
type Collector struct {
	opCounts    sync.Map // map[string]*uint64 - operation -> count
	opErrors    sync.Map // map[string]*uint64 - operation -> error count
	opDurations sync.Map // map[string]*durationValue - operation -> total duration in seconds

	// Cache reference (optional, for querying cache-specific metrics)
	cache cache.Cache
}

// durationValue holds duration with mutex for thread-safe updates.
type durationValue struct {
	mu           sync.Mutex
	totalSeconds float64
}

// CacheMetrics holds definition-cache performance metrics.
type CacheMetrics struct {
	Hits        uint64
	Misses      uint64
	HitRate     float64
	KeysCurrent int
	Evictions   uint64
}

// OperationMetrics holds per-operation catalog metrics.
type OperationMetrics struct {
	Counts               map[string]uint64
	ErrorCounts          map[string]uint64
	TotalDurationSeconds map[string]float64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// SetCache sets the cache instance for collecting cache metrics.
func (c *Collector) SetCache(cache cache.Cache) {
	c.cache = cache
}

// RecordOperation records a catalog operation.
func (c *Collector) RecordOperation(op string) {
	counter := c.getOrCreateCounter(&c.opCounts, op)
	atomic.AddUint64(counter, 1)
}

// RecordError records a failed catalog operation.
func (c *Collector) RecordError(op string) {
	counter := c.getOrCreateCounter(&c.opErrors, op)
	atomic.AddUint64(counter, 1)
}

// RecordDuration records the duration of a catalog operation in seconds.
func (c *Collector) RecordDuration(op string, durationSeconds float64) {
	val, _ := c.opDurations.LoadOrStore(op, &durationValue{})
	dv := val.(*durationValue)

	dv.mu.Lock()
	dv.totalSeconds += durationSeconds
	dv.mu.Unlock()
}

// GetCacheMetrics returns current cache metrics.
func (c *Collector) GetCacheMetrics() *CacheMetrics {
	if c.cache == nil {
		return &CacheMetrics{}
	}

	m := c.cache.Metrics()
	if m == nil {
		return &CacheMetrics{}
	}

	return &CacheMetrics{
		Hits:        m.Hits,
		Misses:      m.Misses,
		HitRate:     m.HitRate(),
		KeysCurrent: c.cache.Len(),
		Evictions:   m.KeysEvicted,
	}
}

// GetOperationMetrics returns a snapshot of per-operation metrics.
func (c *Collector) GetOperationMetrics() *OperationMetrics {
	result := &OperationMetrics{
		Counts:               make(map[string]uint64),
		ErrorCounts:          make(map[string]uint64),
		TotalDurationSeconds: make(map[string]float64),
	}

	c.opCounts.Range(func(key, value interface{}) bool {
		result.Counts[key.(string)] = atomic.LoadUint64(value.(*uint64))
		return true
	})
	c.opErrors.Range(func(key, value interface{}) bool {
		result.ErrorCounts[key.(string)] = atomic.LoadUint64(value.(*uint64))
		return true
	})
	c.opDurations.Range(func(key, value interface{}) bool {
		dv := value.(*durationValue)
		dv.mu.Lock()
		result.TotalDurationSeconds[key.(string)] = dv.totalSeconds
		dv.mu.Unlock()
		return true
	})

	return result
}

func (c *Collector) getOrCreateCounter(m *sync.Map, key string) *uint64 {
	val, _ := m.LoadOrStore(key, new(uint64))
	return val.(*uint64)
}
