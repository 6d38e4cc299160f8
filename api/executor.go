// File: api/executor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor contract for single-threaded task dispatch. Every connection is
// bound to one executor for its entire lifetime; all of its callbacks run
// there, so components scheduled this way need no internal locking.

package api

// Executor schedules tasks onto a single execution thread.
type Executor interface {
	// Execute runs task on the executor thread. Calls made from the
	// executor thread itself run inline, preserving ordering. Tasks posted
	// to an executor that has shut down are dropped without running, so
	// callers that need a post-shutdown outcome must observe it another
	// way, such as a completion channel.
	Execute(task func())

	// InLoop reports whether the caller is already on the executor thread.
	InLoop() bool
}
