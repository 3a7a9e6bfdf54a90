package anomaly

import "regexp"

// PrefixDeviationDetector flags lines that fail to match a prefix regex
// discovered by the prefix-template extractor. It is not part of the
// unconditional default set — the pipeline wires it in only when a
// template was actually extracted for the file (spec.md §4.8
// "prefix_deviation": "Emitted by C8 only when C9 has produced a prefix
// regex").
type PrefixDeviationDetector struct {
	re *regexp.Regexp
}

// NewPrefixDeviationDetector compiles the supplied anchored prefix regex.
// Returns nil, false if the pattern does not compile.
func NewPrefixDeviationDetector(pattern string) (*PrefixDeviationDetector, bool) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, false
	}
	return &PrefixDeviationDetector{re: re}, true
}

func (d *PrefixDeviationDetector) Name() string     { return "prefix_deviation" }
func (d *PrefixDeviationDetector) Category() string { return CategoryFormat }

func (d *PrefixDeviationDetector) CheckLine(ctx LineContext) (float64, bool) {
	if ctx.Line == "" {
		return 0, false
	}
	if d.re.MatchString(ctx.Line) {
		return 0, false
	}
	if isIndented(ctx.Line) {
		return 0.2, true
	}
	return 0.5, true
}

func (d *PrefixDeviationDetector) ShouldMergeWithPrevious(ctx LineContext, prevSeverity float64) bool {
	return !d.re.MatchString(ctx.Line)
}

func (d *PrefixDeviationDetector) GetDescription(lines []string) string {
	return "Prefix pattern deviation"
}
