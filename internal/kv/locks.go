package kv

import "sync"

// KeyLocks hands out one mutex per storage key.
//
// Every read-modify-write against a key must hold that key's lock for the
// whole sequence, otherwise two writers can both read the old value and one
// of their writes is lost. The zero value is ready to use.
type KeyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyLocks returns an empty lock table.
func NewKeyLocks() *KeyLocks {
	return &KeyLocks{}
}

// Lock blocks until the lock for key is held and returns its release func.
func (k *KeyLocks) Lock(key string) (unlock func()) {
	m := k.get(key)
	m.Lock()
	return m.Unlock
}

func (k *KeyLocks) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

var lockTables sync.Map // scope -> *KeyLocks

// LocksFor returns the lock table for scope, creating it on first use.
// Handles on the same storage must pass the same scope (the adapter value
// itself, or a string naming the backing file) so their writes to one key
// share a mutex. scope must be comparable.
func LocksFor(scope any) *KeyLocks {
	if l, ok := lockTables.Load(scope); ok {
		return l.(*KeyLocks)
	}
	l, _ := lockTables.LoadOrStore(scope, NewKeyLocks())
	return l.(*KeyLocks)
}
