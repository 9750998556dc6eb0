package lsmtree

import "sync/atomic"

// Metrics holds running counters for a tree's lifetime operations.
type Metrics struct {
	Writes      int64
	Reads       int64
	Flushes     int64
	Compactions int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncWrites() {
	atomic.AddInt64(&m.Writes, 1)
}

func (m *Metrics) IncReads() {
	atomic.AddInt64(&m.Reads, 1)
}

func (m *Metrics) IncFlushes() {
	atomic.AddInt64(&m.Flushes, 1)
}

func (m *Metrics) IncCompactions() {
	atomic.AddInt64(&m.Compactions, 1)
}

// Snapshot returns a point-in-time copy of the counters, safe to read
// concurrently with further increments.
func (m *Metrics) Snapshot() Metrics {
	return Metrics{
		Writes:      atomic.LoadInt64(&m.Writes),
		Reads:       atomic.LoadInt64(&m.Reads),
		Flushes:     atomic.LoadInt64(&m.Flushes),
		Compactions: atomic.LoadInt64(&m.Compactions),
	}
}
