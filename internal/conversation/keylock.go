// ABOUTME: Per-key mutual exclusion for serializing work by phone number
// ABOUTME: Refcounted mutex table so idle keys do not accumulate

package conversation

import "sync"

// lockEntry is one live per-key mutex with its waiter count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex hands out a mutex per key. Entries are dropped once the
// last holder or waiter releases, so the table stays bounded by the
// number of keys currently in flight.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[string]*lockEntry)}
}

// Lock acquires the mutex for key and returns its release function.
// Callers must release on every exit path.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.entries[key]
	if !ok {
		entry = &lockEntry{}
		k.entries[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
