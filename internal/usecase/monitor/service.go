// Package monitor records query latencies for percentile and SLA reporting.
package monitor

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gridwatch/searchsync/internal/domain/latency"
)

// DefaultCapacity is the total number of retained samples.
const DefaultCapacity = 1000

// shardCount spreads appends across independent locks so concurrent
// searches do not serialize on one mutex.
const shardCount = 8

// Service keeps a fixed-capacity ring of recent query latency samples.
// Eviction is oldest-first within each shard; the process-wide sequence
// keeps snapshots globally ordered. In-memory only, never persisted.
type Service struct {
	shards [shardCount]*shard
	seq    atomic.Uint64
}

type shard struct {
	mu   sync.Mutex
	buf  []latency.Sample
	next int
	full bool
}

// New creates a monitor retaining at most capacity samples.
func New(capacity int) *Service {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	per := (capacity + shardCount - 1) / shardCount

	s := &Service{}
	for i := range s.shards {
		s.shards[i] = &shard{buf: make([]latency.Sample, per)}
	}
	return s
}

// Record appends one completed query sample, evicting the oldest sample in
// the target shard when it is full.
func (s *Service) Record(tenant, queryType string, d time.Duration) {
	seq := s.seq.Add(1)
	sample := latency.Sample{
		Seq:        seq,
		At:         time.Now(),
		Tenant:     tenant,
		QueryType:  queryType,
		DurationMS: d.Milliseconds(),
	}

	sh := s.shards[seq%shardCount]
	sh.mu.Lock()
	sh.buf[sh.next] = sample
	sh.next++
	if sh.next == len(sh.buf) {
		sh.next = 0
		sh.full = true
	}
	sh.mu.Unlock()
}

// OverallStats summarizes every retained sample.
func (s *Service) OverallStats() latency.Stats {
	return latency.Compute(s.snapshot())
}

// TenantStats summarizes the retained samples for one tenant.
func (s *Service) TenantStats(tenant string) latency.Stats {
	var filtered []latency.Sample
	for _, sample := range s.snapshot() {
		if sample.Tenant == tenant {
			filtered = append(filtered, sample)
		}
	}
	return latency.Compute(filtered)
}

// SlowQueries returns up to limit samples exceeding the slow threshold,
// most recent first.
func (s *Service) SlowQueries(limit int) []latency.Sample {
	if limit <= 0 {
		return nil
	}

	var slow []latency.Sample
	for _, sample := range s.snapshot() {
		if sample.DurationMS > latency.SlowThresholdMS {
			slow = append(slow, sample)
		}
	}
	sort.Slice(slow, func(i, j int) bool { return slow[i].Seq > slow[j].Seq })

	if len(slow) > limit {
		slow = slow[:limit]
	}
	return slow
}

// Distribution buckets every retained sample into fixed latency ranges.
func (s *Service) Distribution() latency.Distribution {
	return latency.Distribute(s.snapshot())
}

// SLACompliance evaluates retained samples against the latency SLA.
func (s *Service) SLACompliance() latency.SLAReport {
	return latency.Evaluate(s.snapshot())
}

// Clear empties the buffer.
func (s *Service) Clear() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.next = 0
		sh.full = false
		sh.mu.Unlock()
	}
}

// snapshot copies all retained samples, ordered by sequence.
func (s *Service) snapshot() []latency.Sample {
	var out []latency.Sample
	for _, sh := range s.shards {
		sh.mu.Lock()
		n := sh.next
		if sh.full {
			n = len(sh.buf)
		}
		out = append(out, sh.buf[:n]...)
		sh.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}
