package chunker

// fdsPerSubprocess estimates how many file descriptors one regex-engine
// subprocess pins down: stdin, stdout, stderr pipes plus the source
// file/chunk reader held open by the dispatching goroutine.
const fdsPerSubprocess = 4

// unlimitedThreshold treats any reported limit at or above this as
// effectively unbounded (RLIMIT_NOFILE commonly reports RLIM_INFINITY,
// a huge sentinel rather than a real ceiling).
const unlimitedThreshold = 1 << 20

// CapSubprocesses bounds requested against the process's file-descriptor
// budget so the configured concurrency cap (spec.md §4.6 "Concurrency
// cap", default derived from CPU count) cannot itself cause "too many
// open files" ChunkFailures on platforms with a low RLIMIT_NOFILE. When
// the limit can't be queried (or looks unbounded), requested passes
// through unchanged.
func CapSubprocesses(requested int) int {
	if requested < 1 {
		requested = 1
	}
	limit, ok := fileDescriptorLimit()
	if !ok || limit >= unlimitedThreshold {
		return requested
	}
	budget := int(limit / fdsPerSubprocess)
	if budget < 1 {
		budget = 1
	}
	if requested > budget {
		return budget
	}
	return requested
}
