// File: concurrency/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Loop is a single-goroutine task executor. A connection is bound to one
// Loop for its entire lifetime: every inbound event, session callback and
// pipeline mutation for that connection runs here, so those components need
// no internal locking. Tasks posted from the loop goroutine itself run
// inline to preserve ordering within one inbound event.

package concurrency

import (
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/momentics/wspipe/affinity"
)

// Loop implements api.Executor on a dedicated goroutine.
type Loop struct {
	mu    sync.Mutex
	cond  *sync.Cond
	tasks *queue.Queue

	goroutineID atomic.Int64
	stopped     bool
	done        chan struct{}

	pinCPU int // -1 means no pinning
}

// NewLoop creates and starts a Loop. pinCPU >= 0 pins the loop's OS thread
// to that CPU.
func NewLoop(pinCPU int) *Loop {
	l := &Loop{
		tasks:  queue.New(),
		done:   make(chan struct{}),
		pinCPU: pinCPU,
	}
	l.cond = sync.NewCond(&l.mu)
	l.goroutineID.Store(-1)
	go l.run()
	return l
}

// Execute schedules task on the loop goroutine. Called from the loop itself
// it runs task inline. After Stop, tasks are silently dropped.
func (l *Loop) Execute(task func()) {
	if l.InLoop() {
		task()
		return
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.tasks.Add(task)
	l.mu.Unlock()
	l.cond.Signal()
}

// InLoop reports whether the caller runs on the loop goroutine.
func (l *Loop) InLoop() bool {
	return goroutineID() == l.goroutineID.Load()
}

// Stop asks the loop to exit after draining queued tasks, then waits for it.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.stopped = true
	l.mu.Unlock()
	l.cond.Signal()
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)
	if l.pinCPU >= 0 {
		affinity.PinThread(l.pinCPU)
		defer affinity.UnpinThread()
	}
	l.goroutineID.Store(goroutineID())

	for {
		l.mu.Lock()
		for l.tasks.Length() == 0 && !l.stopped {
			l.cond.Wait()
		}
		if l.tasks.Length() == 0 && l.stopped {
			l.mu.Unlock()
			return
		}
		task := l.tasks.Remove().(func())
		l.mu.Unlock()

		task()
	}
}
