//go:build !windows

package chunker

import "golang.org/x/sys/unix"

// fileDescriptorLimit returns the process's current soft RLIMIT_NOFILE.
func fileDescriptorLimit() (uint64, bool) {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		return 0, false
	}
	return rlimit.Cur, true
}
