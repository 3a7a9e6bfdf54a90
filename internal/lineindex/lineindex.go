// Package lineindex implements rx's line-offset index (spec.md C4): a
// sparse checkpoint table over a file's lines, line-length statistics, and
// the persisted UnifiedFileIndex record that carries them plus anomaly
// results between a build and a later cache hit.
package lineindex

import (
	"github.com/standardbeagle/rx/internal/rxtypes"
)

// Checkpoint is one entry of a LineIndex: the 1-based line number starting
// at byte_offset, which always points at the first byte of a line.
type Checkpoint struct {
	LineNo     int64
	ByteOffset int64
}

// LineIndex is a strictly increasing sequence of checkpoints, always
// starting with (1, 0) (spec.md §3).
type LineIndex struct {
	Checkpoints []Checkpoint
	Step        int64
}

// LineStats holds the exact and reservoir-approximated line-length
// statistics spec.md §4.4 requires.
type LineStats struct {
	LineCount      int64
	EmptyLineCount int64
	MaxLineLength  int64
	MaxLineNumber  int64
	MaxByteOffset  int64
	Mean           float64
	Stddev         float64
	Median         float64
	P95            float64
	P99            float64
}

// UnifiedFileIndex is the persisted per-file record (spec.md §3).
type UnifiedFileIndex struct {
	Version           int
	SourcePath        string
	SourceSizeBytes   int64
	SourceModifiedAt  int64 // unix nanoseconds, for stable JSON round-tripping
	Index             LineIndex
	Stats             LineStats
	LineEnding        rxtypes.LineEnding
	Anomalies         []rxtypes.AnomalyRange
	AnomalySummary    map[string]int
	AnalysisPerformed bool
}

// CurrentVersion is the UnifiedFileIndex format version. Bump whenever the
// on-disk shape changes incompatibly; Valid rejects mismatched versions.
const CurrentVersion = 1

// Identity returns the FileIdentity this record was built against.
func (u *UnifiedFileIndex) Identity() rxtypes.FileIdentity {
	return rxtypes.FileIdentity{SizeBytes: u.SourceSizeBytes, ModifiedAt: nanosToTime(u.SourceModifiedAt)}
}

// Valid reports whether the cached record still matches current and
// satisfies wantAnalysis (spec.md §4.4 "Rebuild").
func (u *UnifiedFileIndex) Valid(current rxtypes.FileIdentity, wantAnalysis, wantAnomalies bool) bool {
	if u == nil {
		return false
	}
	if u.Version != CurrentVersion {
		return false
	}
	if !u.Identity().Equal(current) {
		return false
	}
	if wantAnalysis && !u.AnalysisPerformed {
		return false
	}
	if wantAnomalies && len(u.Anomalies) == 0 {
		// The request detects anomalies but the cache has none recorded:
		// it may predate anomaly detection being enabled (spec.md §4.4).
		return false
	}
	return true
}
