package app

import "sync"

// guideLocks serialises multi-step mutations of one guide's subtree. Entries
// are reference counted and dropped once no goroutine holds or waits on them.
type guideLocks struct {
	mu    sync.Mutex
	locks map[int64]*guideLock
}

type guideLock struct {
	sync.RWMutex
	refs int
}

func newGuideLocks() *guideLocks {
	return &guideLocks{locks: make(map[int64]*guideLock)}
}

func (l *guideLocks) acquire(guideID int64) *guideLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.locks[guideID]
	if !ok {
		entry = &guideLock{}
		l.locks[guideID] = entry
	}
	entry.refs++
	return entry
}

func (l *guideLocks) release(guideID int64, entry *guideLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, guideID)
	}
}

// lock takes the guide exclusively and returns its unlock function.
func (l *guideLocks) lock(guideID int64) func() {
	entry := l.acquire(guideID)
	entry.Lock()
	return func() {
		entry.Unlock()
		l.release(guideID, entry)
	}
}

// rlock takes the guide for reading and returns its unlock function.
func (l *guideLocks) rlock(guideID int64) func() {
	entry := l.acquire(guideID)
	entry.RLock()
	return func() {
		entry.RUnlock()
		l.release(guideID, entry)
	}
}

func (l *guideLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
