// Package anomaly implements rx's anomaly detection pipeline (C8): a
// registry of line-level detectors run in a single streaming pass over a
// file, producing merged anomaly ranges bounded by a fixed-capacity heap.
package anomaly

import "github.com/standardbeagle/rx/internal/rxtypes"

// LineContext is the per-line state a Detector's CheckLine sees (spec.md
// §4.8 "Detector contract").
type LineContext struct {
	Line       string
	LineNumber int64
	ByteOffset int64
	Window     []string // up to WindowSize previous raw lines, oldest first
	MeanLen    float64  // running mean line length up to (not including) this line
	StddevLen  float64  // running stddev line length up to (not including) this line
}

// PrescanPattern is one (pattern, severity) pair a detector may advertise
// so the driver can ask the external regex engine to find candidate lines
// at full I/O speed before the streaming pass (spec.md §4.8).
type PrescanPattern struct {
	Pattern  string
	Severity float64
}

// Detector is one anomaly signal (spec.md §4.8 "Detector contract").
type Detector interface {
	Name() string
	Category() string
	CheckLine(ctx LineContext) (severity float64, ok bool)
	ShouldMergeWithPrevious(ctx LineContext, prevSeverity float64) bool
	GetDescription(lines []string) string
}

// PrescanCapable is implemented by detectors that can offer the driver
// prescan regexes instead of running only in the streaming pass.
type PrescanCapable interface {
	PrescanPatterns() []PrescanPattern
}

// Closed detector categories (spec.md §4.8).
const (
	CategoryError     = rxtypes.CategoryError
	CategoryWarning   = rxtypes.CategoryWarning
	CategoryTraceback = rxtypes.CategoryTraceback
	CategoryFormat    = rxtypes.CategoryFormat
	CategorySecurity  = rxtypes.CategorySecurity
	CategoryTiming    = rxtypes.CategoryTiming
	CategoryMultiline = rxtypes.CategoryMultiline
)
