package prioritylock

import (
	"sync"
)

// Mutex implements a lock with three priorities:
//   - High priority write lock: block submission takes it, with the highest priority.
//   - High priority read lock: lookups take it. It may be held concurrently
//     with other read locks, and yields only to the write lock.
//   - Low priority lock: background work such as template building or stats
//     collection takes it. It waits for every high priority holder, including
//     those still queued.
type Mutex struct {
	dataMutex           sync.RWMutex
	lowPriorityMutex    sync.Mutex
	highPriorityWaiting sync.WaitGroup
}

// New returns a new priority mutex.
func New() *Mutex {
	lock := Mutex{
		highPriorityWaiting: sync.WaitGroup{},
	}
	return &lock
}

// LowPriorityLock will acquire a low-priority lock
// it must wait until both low priority and all high priority lock holders are released.
func (mtx *Mutex) LowPriorityLock() {
	mtx.lowPriorityMutex.Lock()
	mtx.highPriorityWaiting.Wait()
	mtx.dataMutex.Lock()
}

// LowPriorityUnlock will unlock the low-priority lock
func (mtx *Mutex) LowPriorityUnlock() {
	mtx.dataMutex.Unlock()
	mtx.lowPriorityMutex.Unlock()
}

// LowPriorityReadLock acquires a shared lock after all high priority holders
// are released. Only one low priority holder exists at a time.
func (mtx *Mutex) LowPriorityReadLock() {
	mtx.lowPriorityMutex.Lock()
	mtx.highPriorityWaiting.Wait()
	mtx.dataMutex.RLock()
}

// LowPriorityReadUnlock releases a lock taken by LowPriorityReadLock.
func (mtx *Mutex) LowPriorityReadUnlock() {
	mtx.dataMutex.RUnlock()
	mtx.lowPriorityMutex.Unlock()
}

// HighPriorityLock will acquire a high-priority lock
// it must still wait until a low-priority lock has been released.
func (mtx *Mutex) HighPriorityLock() {
	mtx.highPriorityWaiting.Add(1)
	mtx.dataMutex.Lock()
}

// HighPriorityUnlock will unlock the high-priority lock
func (mtx *Mutex) HighPriorityUnlock() {
	mtx.dataMutex.Unlock()
	mtx.highPriorityWaiting.Done()
}

// HighPriorityReadLock acquires a shared high-priority lock.
func (mtx *Mutex) HighPriorityReadLock() {
	mtx.highPriorityWaiting.Add(1)
	mtx.dataMutex.RLock()
}

// HighPriorityReadUnlock releases a lock taken by HighPriorityReadLock.
func (mtx *Mutex) HighPriorityReadUnlock() {
	mtx.highPriorityWaiting.Done()
	mtx.dataMutex.RUnlock()
}
