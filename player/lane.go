package player

import (
	"runtime/debug"
	"sync"

	"github.com/Strum355/log"
)

// lanes runs work for each guild one task at a time, in submission order.
// Different guilds proceed independently. A lane's goroutine exits once its
// queue is empty and a later task starts a fresh one.
type lanes struct {
	mu    sync.Mutex
	byKey map[string]*lane
}

type lane struct {
	key   string
	tasks []func()
}

func newLanes() *lanes {
	return &lanes{byKey: map[string]*lane{}}
}

// submit queues fn without waiting for it. It never blocks, so it is safe
// to call from transport callbacks.
func (l *lanes) submit(key string, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ln, ok := l.byKey[key]
	if !ok {
		ln = &lane{key: key}
		l.byKey[key] = ln
		go l.run(ln)
	}
	ln.tasks = append(ln.tasks, fn)
}

// do queues fn and waits until it has run. It must not be called from
// inside a task on the same lane.
func (l *lanes) do(key string, fn func()) {
	done := make(chan struct{})
	l.submit(key, func() {
		defer close(done)
		fn()
	})
	<-done
}

// active returns the number of lanes with a running goroutine.
func (l *lanes) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}

func (l *lanes) run(ln *lane) {
	for {
		l.mu.Lock()
		if len(ln.tasks) == 0 {
			delete(l.byKey, ln.key)
			l.mu.Unlock()
			return
		}
		fn := ln.tasks[0]
		ln.tasks[0] = nil
		ln.tasks = ln.tasks[1:]
		l.mu.Unlock()
		ln.exec(fn)
	}
}

func (ln *lane) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"guild_id": ln.key,
				"panic":    r,
				"stack":    string(debug.Stack()),
			}).Error("Recovered panic in guild task")
		}
	}()
	fn()
}
