package iamkit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTransactionMonitorRecord tests that outcomes and durations accumulate
func TestTransactionMonitorRecord(t *testing.T) {
	tm := newTransactionMonitor()

	tm.recordTransaction(10*time.Millisecond, true)
	tm.recordTransaction(30*time.Millisecond, true)
	tm.recordTransaction(20*time.Millisecond, false)

	m := tm.getMetrics()
	assert.Equal(t, int64(3), m.TotalTransactions)
	assert.Equal(t, int64(2), m.SuccessfulTransactions)
	assert.Equal(t, int64(1), m.FailedTransactions)
	assert.Equal(t, int64(0), m.SlowTransactions)
	assert.Equal(t, 20*time.Millisecond, m.AverageDuration)
	assert.Equal(t, 30*time.Millisecond, m.MaxDuration)
	assert.Equal(t, 10*time.Millisecond, m.MinDuration)
}

// TestTransactionMonitorSlowCount tests the slow-transaction threshold
func TestTransactionMonitorSlowCount(t *testing.T) {
	tm := newTransactionMonitor()

	tm.recordTransaction(50*time.Millisecond, true)
	tm.recordTransaction(slowTxThreshold, true)
	tm.recordTransaction(2*time.Second, false)

	m := tm.getMetrics()
	assert.Equal(t, int64(2), m.SlowTransactions)
	assert.Equal(t, 2*time.Second, m.MaxDuration)
}

// TestTransactionMonitorReset tests that reset zeroes counters and restamps the baseline
func TestTransactionMonitorReset(t *testing.T) {
	tm := newTransactionMonitor()

	tm.recordTransaction(5*time.Second, false)
	before := tm.getMetrics()
	require.Equal(t, int64(1), before.TotalTransactions)

	tm.reset()

	m := tm.getMetrics()
	assert.Equal(t, int64(0), m.TotalTransactions)
	assert.Equal(t, int64(0), m.FailedTransactions)
	assert.Equal(t, int64(0), m.SlowTransactions)
	assert.Equal(t, time.Duration(0), m.AverageDuration)
	assert.Equal(t, time.Duration(0), m.MaxDuration)
	assert.Equal(t, time.Duration(0), m.MinDuration)
	assert.False(t, m.LastReset.Before(before.LastReset))
}

// TestServiceIsTransactionHealthy tests the health thresholds over recorded outcomes
func TestServiceIsTransactionHealthy(t *testing.T) {
	service := New(nil)

	// Too few transactions to judge
	service.txMonitor.recordTransaction(10*time.Millisecond, false)
	assert.True(t, service.IsTransactionHealthy())

	// 100 fast transactions, 4 failures: within thresholds
	service.ResetTransactionMetrics()
	for i := 0; i < 100; i++ {
		service.txMonitor.recordTransaction(10*time.Millisecond, i >= 4)
	}
	assert.True(t, service.IsTransactionHealthy())

	// Push the failure rate over 5%
	service.txMonitor.recordTransaction(10*time.Millisecond, false)
	service.txMonitor.recordTransaction(10*time.Millisecond, false)
	assert.False(t, service.IsTransactionHealthy())

	// Fast and reliable again after a reset, then degrade the average
	service.ResetTransactionMetrics()
	for i := 0; i < 20; i++ {
		service.txMonitor.recordTransaction(2*time.Second, true)
	}
	assert.False(t, service.IsTransactionHealthy())
}

// TestServiceTransactionMetricsRecorded tests that Transaction feeds the monitor
func TestServiceTransactionMetricsRecorded(t *testing.T) {
	service := New(nil)

	// No usable database handle, so the transaction fails and is recorded
	err := service.Transaction(context.Background(), func(ctx context.Context) error {
		return nil
	})
	require.Error(t, err)

	m := service.GetTransactionMetrics()
	assert.Equal(t, int64(1), m.TotalTransactions)
	assert.Equal(t, int64(1), m.FailedTransactions)
	assert.Equal(t, int64(0), m.SuccessfulTransactions)
}
