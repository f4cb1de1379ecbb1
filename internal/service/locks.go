package service

import "sync"

// debateLocks hands out one RWMutex per debate. Debates are never deleted,
// so entries are never evicted.
type debateLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func newDebateLocks() *debateLocks {
	return &debateLocks{locks: make(map[string]*sync.RWMutex)}
}

func (l *debateLocks) get(debateID string) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[debateID]
	if !ok {
		lock = &sync.RWMutex{}
		l.locks[debateID] = lock
	}
	return lock
}
