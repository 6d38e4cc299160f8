// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral API for pinning event-loop goroutines to CPUs.
// Platform-specific implementations live in separate files guarded by
// build tags.

package affinity

import "runtime"

// PinThread locks the calling goroutine to its OS thread and pins that
// thread to the given logical CPU on supported platforms. On unsupported
// platforms the thread stays locked but unpinned.
func PinThread(cpuID int) error {
	runtime.LockOSThread()
	return setAffinityPlatform(cpuID)
}

// UnpinThread releases the OS thread lock taken by PinThread.
func UnpinThread() {
	runtime.UnlockOSThread()
}
