//go:build windows

package chunker

import "golang.org/x/sys/windows"

// fileDescriptorLimit has no RLIMIT_NOFILE equivalent on Windows;
// GetProcessHandleCount instead reports the process's current open
// handle count, which CapSubprocesses uses as a conservative proxy for
// how much headroom remains before piling on more subprocess handles.
func fileDescriptorLimit() (uint64, bool) {
	var count uint32
	if err := windows.GetProcessHandleCount(windows.CurrentProcess(), &count); err != nil {
		return 0, false
	}
	const assumedHandleCeiling = 10000
	if count >= assumedHandleCeiling {
		return 0, false
	}
	return uint64(assumedHandleCeiling - count), true
}
