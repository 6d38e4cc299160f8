// File: concurrency/loop_pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// LoopPool distributes connections across a small fixed set of event
// loops. Shutdown is one-shot: the pool may be shared by several clients,
// so the shut-down flag is the single piece of state touched from outside
// a connection's own loop and is guarded by an atomic compare-and-set.

package concurrency

import (
	"runtime"
	"sync/atomic"

	"github.com/momentics/wspipe/api"
)

// LoopPool is a fixed set of event loops with round-robin assignment.
type LoopPool struct {
	loops []*Loop
	next  atomic.Uint64
	down  atomic.Bool
}

// NewLoopPool creates size loops. size <= 0 means runtime.NumCPU().
// pinLoops pins each loop's OS thread to a distinct CPU.
func NewLoopPool(size int, pinLoops bool) *LoopPool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &LoopPool{loops: make([]*Loop, size)}
	for i := range p.loops {
		cpu := -1
		if pinLoops {
			cpu = i % runtime.NumCPU()
		}
		p.loops[i] = NewLoop(cpu)
	}
	return p
}

// Next returns the loop for the next connection.
func (p *LoopPool) Next() (*Loop, error) {
	if p.down.Load() {
		return nil, api.ErrAlreadyShutDown
	}
	n := p.next.Add(1) - 1
	return p.loops[n%uint64(len(p.loops))], nil
}

// Size returns the number of loops in the pool.
func (p *LoopPool) Size() int {
	return len(p.loops)
}

// Shutdown stops every loop exactly once. A second call reports
// api.ErrAlreadyShutDown.
func (p *LoopPool) Shutdown() error {
	if !p.down.CompareAndSwap(false, true) {
		return api.ErrAlreadyShutDown
	}
	for _, l := range p.loops {
		l.Stop()
	}
	return nil
}

// IsShutDown reports whether Shutdown has completed its first call.
func (p *LoopPool) IsShutDown() bool {
	return p.down.Load()
}
