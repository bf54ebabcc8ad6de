package room

import (
	"context"
	"sync"
)

// roomLocker hands out one mutex per room code. Entries are dropped once no
// caller holds or waits for them.
type roomLocker struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	ch   chan struct{}
	refs int
}

func newRoomLocker() *roomLocker {
	return &roomLocker{locks: make(map[string]*roomLock)}
}

// lock blocks until the room is free or ctx is done.
func (l *roomLocker) lock(ctx context.Context, code string) (func(), error) {
	l.mu.Lock()
	rl, ok := l.locks[code]
	if !ok {
		rl = &roomLock{ch: make(chan struct{}, 1)}
		l.locks[code] = rl
	}
	rl.refs++
	l.mu.Unlock()

	select {
	case rl.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-rl.ch
				l.release(code, rl)
			})
		}, nil
	case <-ctx.Done():
		l.release(code, rl)
		return nil, ctx.Err()
	}
}

func (l *roomLocker) release(code string, rl *roomLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rl.refs--
	if rl.refs == 0 {
		delete(l.locks, code)
	}
}

func (l *roomLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
