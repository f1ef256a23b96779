package prioritylock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadersShareTheLock(t *testing.T) {
	mtx := New()
	mtx.HighPriorityReadLock()
	done := make(chan struct{})
	go func() {
		mtx.HighPriorityReadLock()
		mtx.HighPriorityReadUnlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("second reader was blocked by the first")
	}
	mtx.HighPriorityReadUnlock()
}

func TestLowPriorityWaitsForWriter(t *testing.T) {
	mtx := New()
	mtx.HighPriorityLock()

	var mu sync.Mutex
	var order []string
	lowDone := make(chan struct{})
	go func() {
		mtx.LowPriorityReadLock()
		mu.Lock()
		order = append(order, "low")
		mu.Unlock()
		mtx.LowPriorityReadUnlock()
		close(lowDone)
	}()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	order = append(order, "high")
	mu.Unlock()
	mtx.HighPriorityUnlock()

	<-lowDone
	require.Equal(t, []string{"high", "low"}, order)
}
