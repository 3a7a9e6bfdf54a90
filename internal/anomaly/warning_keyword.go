package anomaly

import "regexp"

var warningKeywordPattern = regexp.MustCompile(`\b(WARN|WARNING)\b`)

// WarningKeywordDetector flags lines containing WARN/WARNING tokens at a
// flat severity (spec.md §4.8 "warning_keyword").
type WarningKeywordDetector struct{}

func NewWarningKeywordDetector() *WarningKeywordDetector { return &WarningKeywordDetector{} }

func (d *WarningKeywordDetector) Name() string     { return "warning_keyword" }
func (d *WarningKeywordDetector) Category() string { return CategoryWarning }

func (d *WarningKeywordDetector) CheckLine(ctx LineContext) (float64, bool) {
	if warningKeywordPattern.MatchString(ctx.Line) {
		return 0.45, true
	}
	return 0, false
}

func (d *WarningKeywordDetector) ShouldMergeWithPrevious(ctx LineContext, prevSeverity float64) bool {
	return false
}

func (d *WarningKeywordDetector) GetDescription(lines []string) string {
	return "Warning keyword"
}

func (d *WarningKeywordDetector) PrescanPatterns() []PrescanPattern {
	return []PrescanPattern{{Pattern: warningKeywordPattern.String(), Severity: 0.45}}
}
