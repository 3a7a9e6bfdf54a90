package anomaly

import (
	"regexp"
	"strconv"
	"strings"
)

var tracebackStartPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^Traceback \(most recent call last\):`),
	regexp.MustCompile(`^\s*at .+\(.*:\d+\)`),              // Java "... at ..."
	regexp.MustCompile(`^panic: `),                          // Go panic
	regexp.MustCompile(`^thread '.+' panicked at`),          // Rust
	regexp.MustCompile(`^\s*at \S+ \(.*\)`),                 // Node stack frame
}

var tracebackContinuationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s+File ".+", line \d+`),
	regexp.MustCompile(`^\s*at .+`),
	regexp.MustCompile(`^\s*\S*Error`),
	regexp.MustCompile(`^\s*\S*Exception`),
	regexp.MustCompile(`^goroutine \d+`),
	regexp.MustCompile(`^\s+/.+\.go:\d+`),
}

// TracebackDetector flags stack-trace start markers across Python, Java,
// Go, Rust, and Node, merging continuation lines into one range
// (spec.md §4.8 "traceback").
type TracebackDetector struct{}

func NewTracebackDetector() *TracebackDetector { return &TracebackDetector{} }

func (d *TracebackDetector) Name() string     { return "traceback" }
func (d *TracebackDetector) Category() string { return CategoryTraceback }

func (d *TracebackDetector) CheckLine(ctx LineContext) (float64, bool) {
	line := strings.TrimRight(ctx.Line, "\r\n")
	for _, p := range tracebackStartPatterns {
		if p.MatchString(line) {
			return 0.9, true
		}
	}
	return 0, false
}

func (d *TracebackDetector) ShouldMergeWithPrevious(ctx LineContext, prevSeverity float64) bool {
	line := strings.TrimRight(ctx.Line, "\r\n")
	for _, p := range tracebackContinuationPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

func (d *TracebackDetector) GetDescription(lines []string) string {
	return "Stack trace (" + strconv.Itoa(len(lines)) + " lines)"
}
