// File: concurrency/promise_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"errors"
	"sync"
	"testing"
)

func TestPromiseSingleAssignment(t *testing.T) {
	p := NewPromise(nil)
	failure := errors.New("first")

	if !p.Fail(failure) {
		t.Fatal("first resolution must win")
	}
	if p.Complete() {
		t.Fatal("later success must be a no-op")
	}
	if p.Fail(errors.New("second")) {
		t.Fatal("later failure must be a no-op")
	}
	if err := p.Err(); !errors.Is(err, failure) {
		t.Fatalf("outcome = %v, want first failure", err)
	}
}

func TestPromiseRacingResolvers(t *testing.T) {
	p := NewPromise(nil)
	var wins int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.Fail(errors.New("race")) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("exactly one resolver must win, got %d", wins)
	}
}

func TestPromiseCallbackBeforeAndAfterResolution(t *testing.T) {
	p := NewPromise(nil)
	var calls []error
	p.OnComplete(func(err error) { calls = append(calls, err) })

	p.Complete()
	<-p.Done()

	p.OnComplete(func(err error) { calls = append(calls, err) })
	if len(calls) != 2 {
		t.Fatalf("expected both callbacks, got %d", len(calls))
	}
	if calls[0] != nil || calls[1] != nil {
		t.Fatalf("success outcome expected, got %v", calls)
	}
	if !p.Resolved() {
		t.Fatal("promise must report resolved")
	}
}

func TestPromiseFailureNeverObservedAsSuccess(t *testing.T) {
	// A callback registering concurrently with Fail must never be handed a
	// nil error: the winner flag and the outcome are published atomically.
	boom := errors.New("boom")
	for i := 0; i < 500; i++ {
		p := NewPromise(nil)
		got := make(chan error, 1)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.Fail(boom)
		}()
		go func() {
			defer wg.Done()
			p.OnComplete(func(err error) { got <- err })
		}()
		wg.Wait()
		if err := <-got; !errors.Is(err, boom) {
			t.Fatalf("iteration %d: callback saw %v, want boom", i, err)
		}
	}
}

func TestPromiseCallbacksRunOnLoop(t *testing.T) {
	l := NewLoop(-1)
	defer l.Stop()

	p := NewPromise(l)
	onLoop := make(chan bool, 1)
	p.OnComplete(func(error) { onLoop <- l.InLoop() })
	p.Complete()
	if !<-onLoop {
		t.Fatal("callback must run on the bound loop")
	}
}
