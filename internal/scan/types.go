// Package scan implements rx's search driver (C6): dispatching chunked
// regex-engine subprocesses across validated files, merging their event
// streams into absolute matches, and consulting the trace cache (C7) and
// line-offset index (C4) along the way.
package scan

import (
	"github.com/standardbeagle/rx/internal/rxtypes"
)

// Request describes one search operation (spec.md §4.6 "Inputs").
type Request struct {
	Paths         []string
	Patterns      []string
	Flags         rxtypes.MatchingFlags
	MaxResults    int // 0 means unset
	ContextBefore int
	ContextAfter  int
	UseIndex      bool
	UseCache      bool
}

// SkippedFile records why a file did not contribute matches.
type SkippedFile struct {
	Path   string
	Reason string
}

// Result is the outcome of a Search call. Files and Patterns resolve the
// opaque FileID/PatternID tokens carried on each Match back to the real
// path/pattern (spec.md §3).
type Result struct {
	Matches      []rxtypes.Match
	ScannedFiles []string
	SkippedFiles []SkippedFile
	Truncated    bool // max_results was hit before every file finished
	Files        map[string]string
	Patterns     map[string]string
}
