package workflow

import (
	"errors"
	"sync"
)

// ErrGameBusy is returned when another transition for the same game is
// already running in this process.
var ErrGameBusy = errors.New("game has a transition in progress")

type gameLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newGameLocks() *gameLocks {
	return &gameLocks{held: make(map[string]struct{})}
}

// tryLock claims id and returns a release func, or false when id is held.
func (l *gameLocks) tryLock(id string) (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[id]; ok {
		return nil, false
	}
	l.held[id] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, id)
			l.mu.Unlock()
		})
	}, true
}

func (l *gameLocks) isHeld(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[id]
	return ok
}
