package httpserver

import "sync"

// gameLocks serializes load-mutate-save cycles per game ID.
// Entries are reference counted and dropped when no request holds them.
type gameLocks struct {
	mu sync.Mutex
	m  map[string]*gameLock
}

type gameLock struct {
	mu   sync.Mutex
	refs int
}

func newGameLocks() *gameLocks {
	return &gameLocks{m: make(map[string]*gameLock)}
}

// lock blocks until id is free and returns the matching unlock.
func (l *gameLocks) lock(id string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.m[id]
	if !ok {
		e = &gameLock{}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}
