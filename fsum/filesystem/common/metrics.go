package common

import (
	"sync"
	"time"
)

// BaseMetrics provides counters shared by anything that performs a sequence of operations
type BaseMetrics struct {
	TotalOperations int64
	SuccessfulOps   int64
	FailedOps       int64
	LastOperation   time.Time
	Mu              sync.RWMutex
}

// UpdateBaseMetrics records the outcome of one operation
func (bm *BaseMetrics) UpdateBaseMetrics(success bool) {
	bm.Mu.Lock()
	defer bm.Mu.Unlock()

	bm.TotalOperations++
	if success {
		bm.SuccessfulOps++
	} else {
		bm.FailedOps++
	}
	bm.LastOperation = time.Now()
}

// Counts returns total, successful and failed operation counts
func (bm *BaseMetrics) Counts() (total, ok, failed int64) {
	bm.Mu.RLock()
	defer bm.Mu.RUnlock()
	return bm.TotalOperations, bm.SuccessfulOps, bm.FailedOps
}

// RunMetrics tracks a single scan run
type RunMetrics struct {
	BaseMetrics
	BytesHashed int64
	StartedAt   time.Time
}

// NewRunMetrics starts the run clock
func NewRunMetrics() *RunMetrics {
	return &RunMetrics{StartedAt: time.Now()}
}

// RecordFile counts a recorded file and the bytes hashed for it
func (rm *RunMetrics) RecordFile(size int64) {
	rm.UpdateBaseMetrics(true)
	rm.Mu.Lock()
	rm.BytesHashed += size
	rm.Mu.Unlock()
}

// RecordSkip counts a skipped path
func (rm *RunMetrics) RecordSkip() {
	rm.UpdateBaseMetrics(false)
}

// Bytes returns the total bytes hashed so far
func (rm *RunMetrics) Bytes() int64 {
	rm.Mu.RLock()
	defer rm.Mu.RUnlock()
	return rm.BytesHashed
}

// Elapsed returns the time since the run started
func (rm *RunMetrics) Elapsed() time.Duration {
	return time.Since(rm.StartedAt)
}
