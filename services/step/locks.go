package step

import "sync"

// keyedLocks serializes step executions per application while leaving steps
// against different applications fully concurrent. Locks are never removed;
// the universe of managed applications is small.
type keyedLocks struct {
	locks sync.Map // natural key → *sync.Mutex
}

func (k *keyedLocks) acquire(key string) func() {
	entry, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := entry.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
