package service

import "sync"

// keyLock provides non-blocking mutual exclusion per file key. Starting
// a run is an atomic claim: a second run for a busy key is rejected
// instead of interleaving record writes with the first.
type keyLock struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func newKeyLock() *keyLock {
	return &keyLock{busy: make(map[string]struct{})}
}

// TryAcquire claims the key. It returns false when the key is already
// held.
func (l *keyLock) TryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.busy[key]; held {
		return false
	}
	l.busy[key] = struct{}{}
	return true
}

// Release frees the key. Releasing an unheld key is a no-op.
func (l *keyLock) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.busy, key)
}
