package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	clockIns        uint64
	shiftsChanged   uint64
	expensesAdded   uint64
	corruptReads    uint64
	streamClients   int64
	streamDelivered uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordEvent counts a persisted shift store mutation by event name.
func (c *Collector) RecordEvent(name string) {
	switch name {
	case "ShiftStarted":
		atomic.AddUint64(&c.clockIns, 1)
	case "ShiftsChanged":
		atomic.AddUint64(&c.shiftsChanged, 1)
	case "ExpenseUpdated":
		atomic.AddUint64(&c.expensesAdded, 1)
	}
}

func (c *Collector) RecordCorruptRead() {
	atomic.AddUint64(&c.corruptReads, 1)
}

func (c *Collector) StreamConnected() {
	atomic.AddInt64(&c.streamClients, 1)
}

func (c *Collector) StreamDisconnected() {
	atomic.AddInt64(&c.streamClients, -1)
}

func (c *Collector) StreamDelivered() {
	atomic.AddUint64(&c.streamDelivered, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":        total,
		"errorsTotal":          errs,
		"rateLimitedTotal":     limited,
		"avgDurationMs":        avg,
		"totalDurationMs":      totalMs,
		"clockInsTotal":        atomic.LoadUint64(&c.clockIns),
		"shiftsChangedTotal":   atomic.LoadUint64(&c.shiftsChanged),
		"expensesAddedTotal":   atomic.LoadUint64(&c.expensesAdded),
		"corruptReadsTotal":    atomic.LoadUint64(&c.corruptReads),
		"streamClients":        atomic.LoadInt64(&c.streamClients),
		"streamDeliveredTotal": atomic.LoadUint64(&c.streamDelivered),
	}
}
