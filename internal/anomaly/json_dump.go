package anomaly

import (
	"regexp"
	"strconv"
	"strings"
)

var jsonStartPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*\{`),
	regexp.MustCompile(`:\s*\{`),
	regexp.MustCompile(`^\s*\[`),
	regexp.MustCompile(`:\s*\[`),
}

// JSONDumpDetector flags embedded JSON objects, but only substantial
// multiline structures — a single-line JSON blob is not flagged (spec.md
// §4.8 "json_dump").
type JSONDumpDetector struct {
	MinJSONLength    int
	MinMultilineLines int
}

// NewJSONDumpDetector returns a JSONDumpDetector with the teacher's
// defaults, ported from json_dump.py's class constants.
func NewJSONDumpDetector() *JSONDumpDetector {
	return &JSONDumpDetector{MinJSONLength: 100, MinMultilineLines: 10}
}

func (d *JSONDumpDetector) Name() string     { return "json_dump" }
func (d *JSONDumpDetector) Category() string { return CategoryFormat }

func (d *JSONDumpDetector) CheckLine(ctx LineContext) (float64, bool) {
	line := strings.TrimRight(ctx.Line, "\r\n")
	if len(line) < d.MinJSONLength {
		return 0, false
	}

	matched := false
	for _, p := range jsonStartPatterns {
		if p.MatchString(line) {
			matched = true
			break
		}
	}
	if !matched {
		return 0, false
	}
	if !strings.Contains(line, `":`) && !strings.Contains(line, `': `) {
		return 0, false
	}

	jsonLike := countJSONLikeLines(ctx.Window, line)
	if jsonLike < d.MinMultilineLines {
		return 0, false
	}

	switch {
	case len(line) > 500:
		return 0.4, true
	case len(line) > 200:
		return 0.35, true
	default:
		return 0.3, true
	}
}

func countJSONLikeLines(window []string, current string) int {
	count := 0
	hasJSONChar := func(s string) bool {
		return strings.ContainsAny(s, `{}[]",:`)
	}
	for _, line := range window {
		if s := strings.TrimSpace(line); s != "" && hasJSONChar(s) {
			count++
		}
	}
	if s := strings.TrimSpace(current); s != "" && hasJSONChar(s) {
		count++
	}
	return count
}

func (d *JSONDumpDetector) ShouldMergeWithPrevious(ctx LineContext, prevSeverity float64) bool {
	line := strings.TrimRight(ctx.Line, "\r\n")
	if line == "" {
		return false
	}
	stripped := strings.TrimLeft(line, " \t")
	for _, prefix := range []string{`"`, "{", "}", "[", "]", ","} {
		if strings.HasPrefix(stripped, prefix) {
			return true
		}
	}
	return false
}

func (d *JSONDumpDetector) GetDescription(lines []string) string {
	total := 0
	for _, l := range lines {
		total += len(l)
	}
	return "Embedded JSON (" + strconv.Itoa(total) + " chars, " + strconv.Itoa(len(lines)) + " lines)"
}
