// File: concurrency/goroutine.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Goroutine identity probe used by Loop.InLoop to detect re-entrant
// Execute calls. The ID is parsed from the runtime stack header; this is
// the only portable way to obtain it and it is done once per call site
// that needs re-entrancy detection, never on hot frame paths.

package concurrency

import (
	"runtime"
	"strconv"
)

// goroutineID returns the current goroutine's ID.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Header shape: "goroutine 123 [running]:"
	s := buf[len("goroutine "):n]
	i := 0
	for i < len(s) && s[i] != ' ' {
		i++
	}
	id, err := strconv.ParseInt(string(s[:i]), 10, 64)
	if err != nil {
		return -2
	}
	return id
}
