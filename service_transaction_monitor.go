package iamkit

import (
	"sync"
	"time"
)

// slowTxThreshold flags transactions worth counting separately. Guarded
// writes in this module are a handful of statements, so anything this slow
// usually means lock contention on the role-permission rows.
const slowTxThreshold = time.Second

// TransactionMetrics is a point-in-time snapshot of transaction outcomes
// since the last reset.
type TransactionMetrics struct {
	TotalTransactions      int64         `json:"total_transactions"`
	SuccessfulTransactions int64         `json:"successful_transactions"`
	FailedTransactions     int64         `json:"failed_transactions"`
	SlowTransactions       int64         `json:"slow_transactions"`
	AverageDuration        time.Duration `json:"average_duration"`
	MaxDuration            time.Duration `json:"max_duration"`
	MinDuration            time.Duration `json:"min_duration"`
	LastReset              time.Time     `json:"last_reset"`
}

// transactionMonitor accumulates outcome counts and duration bounds for
// every Transaction call on the service. All fields are guarded by mu.
type transactionMonitor struct {
	mu            sync.RWMutex
	totalCount    int64
	successCount  int64
	failureCount  int64
	slowCount     int64
	totalDuration time.Duration
	maxDuration   time.Duration
	minDuration   time.Duration
	lastReset     time.Time
}

func newTransactionMonitor() *transactionMonitor {
	return &transactionMonitor{lastReset: time.Now()}
}

// recordTransaction folds one completed transaction into the counters.
func (tm *transactionMonitor) recordTransaction(duration time.Duration, success bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.totalCount == 0 || duration < tm.minDuration {
		tm.minDuration = duration
	}
	if duration > tm.maxDuration {
		tm.maxDuration = duration
	}

	tm.totalCount++
	tm.totalDuration += duration
	if success {
		tm.successCount++
	} else {
		tm.failureCount++
	}
	if duration >= slowTxThreshold {
		tm.slowCount++
	}
}

// getMetrics returns a consistent snapshot of the current counters.
func (tm *transactionMonitor) getMetrics() TransactionMetrics {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	var avg time.Duration
	if tm.totalCount > 0 {
		avg = tm.totalDuration / time.Duration(tm.totalCount)
	}

	return TransactionMetrics{
		TotalTransactions:      tm.totalCount,
		SuccessfulTransactions: tm.successCount,
		FailedTransactions:     tm.failureCount,
		SlowTransactions:       tm.slowCount,
		AverageDuration:        avg,
		MaxDuration:            tm.maxDuration,
		MinDuration:            tm.minDuration,
		LastReset:              tm.lastReset,
	}
}

// reset zeroes all counters and stamps a new baseline.
func (tm *transactionMonitor) reset() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.totalCount = 0
	tm.successCount = 0
	tm.failureCount = 0
	tm.slowCount = 0
	tm.totalDuration = 0
	tm.maxDuration = 0
	tm.minDuration = 0
	tm.lastReset = time.Now()
}
