package app

import "sync"

// sessionLocks serializes lifecycle writes per session id. Submissions take the read side so they run in
// parallel with each other but never interleave with a transition of the same session.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sync.RWMutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (l *sessionLocks) acquire(id string) *sessionLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &sessionLock{}
		l.locks[id] = lock
	}
	lock.refs++
	return lock
}

func (l *sessionLocks) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[id]
	if !ok {
		return
	}
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, id)
	}
}

// lock takes the exclusive side and returns the matching unlock.
func (l *sessionLocks) lock(id string) func() {
	lock := l.acquire(id)
	lock.Lock()
	return func() {
		lock.Unlock()
		l.release(id)
	}
}

// rlock takes the shared side and returns the matching unlock.
func (l *sessionLocks) rlock(id string) func() {
	lock := l.acquire(id)
	lock.RLock()
	return func() {
		lock.RUnlock()
		l.release(id)
	}
}

func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
