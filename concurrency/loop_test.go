// File: concurrency/loop_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/momentics/wspipe/api"
)

func TestLoopRunsTasksInSubmissionOrder(t *testing.T) {
	l := NewLoop(-1)
	defer l.Stop()

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup
	wg.Add(100)
	for i := 0; i < 100; i++ {
		i := i
		l.Execute(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()
	for i, v := range got {
		if v != i {
			t.Fatalf("order broken at %d: got %d", i, v)
		}
	}
}

func TestLoopInLoopDetection(t *testing.T) {
	l := NewLoop(-1)
	defer l.Stop()

	if l.InLoop() {
		t.Fatal("test goroutine must not be the loop")
	}
	done := make(chan bool, 1)
	l.Execute(func() { done <- l.InLoop() })
	if !<-done {
		t.Fatal("loop goroutine not detected")
	}
}

func TestLoopExecuteFromLoopRunsInline(t *testing.T) {
	l := NewLoop(-1)
	defer l.Stop()

	done := make(chan []int, 1)
	l.Execute(func() {
		var order []int
		order = append(order, 1)
		l.Execute(func() { order = append(order, 2) })
		order = append(order, 3)
		done <- order
	})
	got := <-done
	if got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("inline re-entrancy order: %v", got)
	}
}

func TestLoopStopDrainsQueuedTasks(t *testing.T) {
	l := NewLoop(-1)
	var ran int
	var mu sync.Mutex
	for i := 0; i < 10; i++ {
		l.Execute(func() {
			mu.Lock()
			ran++
			mu.Unlock()
			time.Sleep(time.Millisecond)
		})
	}
	l.Stop()
	mu.Lock()
	defer mu.Unlock()
	if ran != 10 {
		t.Fatalf("expected 10 drained tasks, got %d", ran)
	}
}

func TestLoopDropsTasksAfterStop(t *testing.T) {
	l := NewLoop(-1)
	l.Stop()

	ran := make(chan struct{}, 1)
	l.Execute(func() { ran <- struct{}{} })
	select {
	case <-ran:
		t.Fatal("task posted after Stop must not run")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLoopPoolRoundRobin(t *testing.T) {
	p := NewLoopPool(3, false)
	defer p.Shutdown()

	if p.Size() != 3 {
		t.Fatalf("pool size = %d", p.Size())
	}
	a, err := p.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	b, _ := p.Next()
	c, _ := p.Next()
	d, _ := p.Next()
	if a == b || b == c {
		t.Fatal("consecutive connections must land on distinct loops")
	}
	if a != d {
		t.Fatal("assignment must wrap around")
	}
}

func TestLoopPoolShutdownIsOneShot(t *testing.T) {
	p := NewLoopPool(1, false)
	if err := p.Shutdown(); err != nil {
		t.Fatalf("first shutdown: %v", err)
	}
	if err := p.Shutdown(); !errors.Is(err, api.ErrAlreadyShutDown) {
		t.Fatalf("second shutdown: %v", err)
	}
	if _, err := p.Next(); !errors.Is(err, api.ErrAlreadyShutDown) {
		t.Fatalf("next after shutdown: %v", err)
	}
}
