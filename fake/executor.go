// File: fake/executor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor runs tasks inline on the calling goroutine. Tests drive a
// session synchronously with it, matching the single-threaded execution
// guarantee a real event loop provides.

package fake

// Executor is a fake api.Executor that executes inline.
type Executor struct{}

// NewExecutor creates an inline executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Execute runs task immediately.
func (Executor) Execute(task func()) {
	task()
}

// InLoop always reports true; the caller is the loop.
func (Executor) InLoop() bool {
	return true
}
