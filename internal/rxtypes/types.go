// Package rxtypes holds value types shared across rx's core subsystems:
// file identity, matches, and the matching-affecting flag set that keys
// the trace cache.
package rxtypes

import (
	"fmt"
	"strconv"
	"time"
)

// FileIdentity is the (size, mtime) pair a file is identified by internally.
// Any cache entry keyed on a FileIdentity becomes invalid the moment either
// field changes.
type FileIdentity struct {
	SizeBytes  int64
	ModifiedAt time.Time
}

// Equal reports whether two identities refer to the same file state.
func (f FileIdentity) Equal(other FileIdentity) bool {
	return f.SizeBytes == other.SizeBytes && f.ModifiedAt.Equal(other.ModifiedAt)
}

// LineEnding is the detected line terminator style of a file.
type LineEnding string

const (
	LineEndingLF    LineEnding = "LF"
	LineEndingCRLF  LineEnding = "CRLF"
	LineEndingCR    LineEnding = "CR"
	LineEndingMixed LineEnding = "mixed"
)

// MatchingFlags are the regex-engine flags that change which bytes match.
// Only these participate in the trace cache key (spec.md §6.3).
type MatchingFlags struct {
	IgnoreCase    bool
	CaseSensitive bool
	WholeWord     bool
	WholeLine     bool
	FixedStrings  bool
	PCRE2         bool
}

// Sorted returns the flag set as a string slice in a fixed flag order (not
// lexicographic), stable across calls, suitable for hashing into a trace
// cache key.
func (f MatchingFlags) Sorted() []string {
	var out []string
	if f.IgnoreCase {
		out = append(out, "-i")
	}
	if f.CaseSensitive {
		out = append(out, "--case-sensitive")
	}
	if f.WholeWord {
		out = append(out, "-w")
	}
	if f.WholeLine {
		out = append(out, "-x")
	}
	if f.FixedStrings {
		out = append(out, "-F")
	}
	if f.PCRE2 {
		out = append(out, "-P")
	}
	return out
}

// Submatch is one capture group's text and byte-column span within a line.
type Submatch struct {
	Text     string
	StartCol int
	EndCol   int
}

// ContextLine is one `-B`/`-A` context line the regex engine emitted
// around a match (spec.md §4.6 step 3), carried on the nearest
// preceding Match rather than as a free-floating event.
type ContextLine struct {
	ByteOffsetLineStart int64
	LineNumberRelative  int64
	LineNumberAbsolute  int64 // -1 when no full-file index was available
	LineText            string
}

// Match is a single regex match, enriched with line context. FileID and
// PatternID are short opaque tokens (e.g. "f1", "p2") rather than the raw
// path/pattern, keeping the match list compact when either is long or
// repeated across many matches; the owning Result carries the lookup
// tables that resolve them back (spec.md §3).
type Match struct {
	PatternID           string
	FileID              string
	ByteOffsetLineStart int64
	LineNumberRelative  int64
	LineNumberAbsolute  int64 // -1 when no full-file index was available
	LineText            string
	Submatches          []Submatch
	ContextLines        []ContextLine
}

// FileToken and PatternToken generate the 1-based opaque ids Match.FileID
// and Match.PatternID carry (spec.md §3).
func FileToken(index int) string    { return fmt.Sprintf("f%d", index+1) }
func PatternToken(index int) string { return fmt.Sprintf("p%d", index+1) }

// PatternTokenIndex parses a PatternToken back to its zero-based index,
// or -1 if token isn't a well-formed pattern token.
func PatternTokenIndex(token string) int {
	if len(token) < 2 || token[0] != 'p' {
		return -1
	}
	n, err := strconv.Atoi(token[1:])
	if err != nil || n < 1 {
		return -1
	}
	return n - 1
}

// AnomalyRange is a contiguous line span flagged by a detector.
type AnomalyRange struct {
	StartLine   int64
	EndLine     int64
	StartOffset int64
	EndOffset   int64
	Severity    float64
	Category    string
	Description string
	Detector    string
}

// Closed category set for AnomalyRange.Category (spec.md §4.8).
const (
	CategoryError     = "error"
	CategoryWarning   = "warning"
	CategoryTraceback = "traceback"
	CategoryFormat    = "format"
	CategorySecurity  = "security"
	CategoryTiming    = "timing"
	CategoryMultiline = "multiline"
)
