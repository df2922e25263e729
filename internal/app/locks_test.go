package app

import (
	"sync"
	"testing"
)

func TestSessionLocksReleaseEntries(t *testing.T) {
	locks := newSessionLocks()

	unlock := locks.lock("s1")
	runlock := locks.rlock("s2")
	if locks.size() != 2 {
		t.Fatalf("expected 2 tracked locks, got %d", locks.size())
	}
	unlock()
	runlock()
	if locks.size() != 0 {
		t.Fatalf("expected locks to be released, got %d", locks.size())
	}
}

func TestSessionLocksSerializeWriters(t *testing.T) {
	locks := newSessionLocks()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("s1")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("expected 50 serialized increments, got %d", counter)
	}
}
