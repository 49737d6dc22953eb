package identity

import (
	"hash/fnv"
	"sync"
)

// KeyedLock provides per-key mutual exclusion over a fixed set of stripes.
// Two goroutines resolving the same identifier set always contend on the
// same stripe, so a find-or-create for a brand-new identifier set cannot
// race with itself inside one process. Cross-process safety comes from the
// unique indexes on the identifier columns.
type KeyedLock struct {
	stripes []sync.Mutex
}

// NewKeyedLock creates a lock with the given number of stripes. Counts
// below one fall back to a single stripe.
func NewKeyedLock(stripes int) *KeyedLock {
	if stripes < 1 {
		stripes = 1
	}
	return &KeyedLock{stripes: make([]sync.Mutex, stripes)}
}

// Lock acquires the stripe owning key.
func (l *KeyedLock) Lock(key string) {
	l.stripes[l.index(key)].Lock()
}

// Unlock releases the stripe owning key.
func (l *KeyedLock) Unlock(key string) {
	l.stripes[l.index(key)].Unlock()
}

func (l *KeyedLock) index(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(l.stripes)))
}
