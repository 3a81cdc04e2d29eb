package collector

import "sync"

// PlayerLocks serializes syncs per player. Callers TryLock before Sync and
// Unlock when it returns.
type PlayerLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewPlayerLocks creates an empty lock set
func NewPlayerLocks() *PlayerLocks {
	return &PlayerLocks{held: make(map[string]struct{})}
}

// TryLock claims puuid, returning false if a sync for it is already running
func (l *PlayerLocks) TryLock(puuid string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[puuid]; busy {
		return false
	}
	l.held[puuid] = struct{}{}
	return true
}

// Unlock releases puuid
func (l *PlayerLocks) Unlock(puuid string) {
	l.mu.Lock()
	delete(l.held, puuid)
	l.mu.Unlock()
}

// Held reports whether a sync for puuid is running
func (l *PlayerLocks) Held(puuid string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.held[puuid]
	return busy
}
