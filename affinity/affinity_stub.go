//go:build !linux

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stub for platforms without thread affinity support.

package affinity

import "errors"

// setAffinityPlatform reports unavailability on this platform.
func setAffinityPlatform(cpuID int) error {
	return errors.New("affinity: not supported on this platform")
}
