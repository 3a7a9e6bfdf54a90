package anomaly

import "regexp"

var errorKeywordSeverity = map[string]float64{
	"PANIC":     0.95,
	"FATAL":     0.9,
	"CRITICAL":  0.85,
	"ERROR":     0.75,
	"EXCEPTION": 0.7,
}

var errorKeywordPattern = regexp.MustCompile(`\b(PANIC|FATAL|CRITICAL|ERROR|Exception)\b`)

// ErrorKeywordDetector flags lines containing bounded error tokens, with
// severity scaled by which keyword matched (spec.md §4.8 "error_keyword").
type ErrorKeywordDetector struct{}

func NewErrorKeywordDetector() *ErrorKeywordDetector { return &ErrorKeywordDetector{} }

func (d *ErrorKeywordDetector) Name() string     { return "error_keyword" }
func (d *ErrorKeywordDetector) Category() string { return CategoryError }

func (d *ErrorKeywordDetector) CheckLine(ctx LineContext) (float64, bool) {
	m := errorKeywordPattern.FindString(ctx.Line)
	if m == "" {
		return 0, false
	}
	key := m
	if key == "Exception" {
		key = "EXCEPTION"
	}
	sev, ok := errorKeywordSeverity[key]
	if !ok {
		sev = 0.7
	}
	return sev, true
}

func (d *ErrorKeywordDetector) ShouldMergeWithPrevious(ctx LineContext, prevSeverity float64) bool {
	return false
}

func (d *ErrorKeywordDetector) GetDescription(lines []string) string {
	return "Error keyword"
}

func (d *ErrorKeywordDetector) PrescanPatterns() []PrescanPattern {
	return []PrescanPattern{{Pattern: errorKeywordPattern.String(), Severity: 0.75}}
}
