package anomaly

import "strings"

// IndentationBlockDetector flags an indented line at or above a length
// threshold and merges the indented lines that follow it into the same
// range — often a pretty-printed structure or nested dump (spec.md §4.8
// "indentation_block"). There is no minimum run length: a single
// qualifying line is flagged on its own.
type IndentationBlockDetector struct {
	MinLength int
}

func NewIndentationBlockDetector() *IndentationBlockDetector {
	return &IndentationBlockDetector{MinLength: 40}
}

func (d *IndentationBlockDetector) Name() string     { return "indentation_block" }
func (d *IndentationBlockDetector) Category() string { return CategoryMultiline }

func (d *IndentationBlockDetector) CheckLine(ctx LineContext) (float64, bool) {
	line := ctx.Line
	if len(line) < d.MinLength {
		return 0, false
	}
	if !isIndented(line) {
		return 0, false
	}
	return 0.3, true
}

func (d *IndentationBlockDetector) ShouldMergeWithPrevious(ctx LineContext, prevSeverity float64) bool {
	return isIndented(ctx.Line)
}

func isIndented(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return len(trimmed) < len(line) && strings.TrimSpace(trimmed) != ""
}

func (d *IndentationBlockDetector) GetDescription(lines []string) string {
	return "Indented block"
}
