// File: concurrency/promise.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Promise is a single-assignment completion cell. Several handshake stages
// (connect, TLS, upgrade response, transport errors) race to resolve the
// same promise; only the first outcome is recorded, later completions are
// no-ops. Callbacks run on the loop the promise is bound to.

package concurrency

import (
	"sync"

	"github.com/momentics/wspipe/api"
)

// Promise resolves exactly once, with nil for success or an error for
// failure.
type Promise struct {
	loop api.Executor
	done chan struct{}

	mu       sync.Mutex
	assigned bool
	err      error
	cbs      []func(error)
}

// NewPromise creates a Promise whose callbacks run on loop. A nil loop runs
// callbacks inline on the resolving goroutine.
func NewPromise(loop api.Executor) *Promise {
	return &Promise{loop: loop, done: make(chan struct{})}
}

// Complete resolves the promise successfully. Reports whether this call won
// the assignment.
func (p *Promise) Complete() bool {
	return p.resolve(nil)
}

// Fail resolves the promise with err. Reports whether this call won the
// assignment.
func (p *Promise) Fail(err error) bool {
	if err == nil {
		err = api.ErrTransportClosed
	}
	return p.resolve(err)
}

// resolve records the outcome and the winner flag under one mutex hold, so
// an OnComplete racing with resolution either registers before the outcome
// is visible or observes both the flag and the error together.
func (p *Promise) resolve(err error) bool {
	p.mu.Lock()
	if p.assigned {
		p.mu.Unlock()
		return false
	}
	p.assigned = true
	p.err = err
	cbs := p.cbs
	p.cbs = nil
	p.mu.Unlock()
	close(p.done)

	for _, cb := range cbs {
		p.dispatch(cb, err)
	}
	return true
}

// OnComplete registers cb to run once the promise resolves. Registration
// after resolution dispatches immediately.
func (p *Promise) OnComplete(cb func(error)) {
	p.mu.Lock()
	if !p.assigned {
		p.cbs = append(p.cbs, cb)
		p.mu.Unlock()
		return
	}
	err := p.err
	p.mu.Unlock()
	p.dispatch(cb, err)
}

// Done returns a channel closed on resolution.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

// Err blocks until resolution and returns the outcome.
func (p *Promise) Err() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Resolved reports whether the promise has been assigned.
func (p *Promise) Resolved() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assigned
}

func (p *Promise) dispatch(cb func(error), err error) {
	if p.loop != nil {
		p.loop.Execute(func() { cb(err) })
		return
	}
	cb(err)
}
