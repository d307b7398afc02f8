package app

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGuideLocksSerialiseWriters(t *testing.T) {
	locks := newGuideLocks()
	var active, peak atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock(7)
			defer unlock()
			n := active.Add(1)
			if n > peak.Load() {
				peak.Store(n)
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()

	if peak.Load() != 1 {
		t.Fatalf("expected one writer at a time, saw %d", peak.Load())
	}
	if locks.size() != 0 {
		t.Fatalf("expected entries released, got %d", locks.size())
	}
}

func TestGuideLocksAreIndependentPerGuide(t *testing.T) {
	locks := newGuideLocks()
	unlockOne := locks.lock(1)
	defer unlockOne()

	done := make(chan struct{})
	go func() {
		unlock := locks.lock(2)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on guide 2 blocked behind guide 1")
	}
}

func TestGuideLocksReadersShare(t *testing.T) {
	locks := newGuideLocks()
	unlockFirst := locks.rlock(3)

	done := make(chan struct{})
	go func() {
		unlock := locks.rlock(3)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second reader blocked")
	}
	unlockFirst()
	if locks.size() != 0 {
		t.Fatalf("expected entries released, got %d", locks.size())
	}
}
