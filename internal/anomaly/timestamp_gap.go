package anomaly

import (
	"regexp"
	"time"
)

var timestampPatterns = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?`), time.RFC3339},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`), "2006-01-02 15:04:05"},
	{regexp.MustCompile(`^[A-Z][a-z]{2} +\d+ \d{2}:\d{2}:\d{2}`), "Jan _2 15:04:05"},
}

func parseLeadingTimestamp(line string) (time.Time, bool) {
	for _, p := range timestampPatterns {
		m := p.re.FindString(line)
		if m == "" {
			continue
		}
		t, err := time.Parse(p.layout, m)
		if err != nil {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

// TimestampGapDetector flags a line whose parsed timestamp jumps far ahead
// of the previous timestamped line, relative to the running median gap
// (spec.md §4.8 "timestamp_gap").
type TimestampGapDetector struct {
	GapMultiplier float64

	prev    time.Time
	hasPrev bool
	gaps    []time.Duration
}

func NewTimestampGapDetector() *TimestampGapDetector {
	return &TimestampGapDetector{GapMultiplier: 10.0}
}

func (d *TimestampGapDetector) Name() string     { return "timestamp_gap" }
func (d *TimestampGapDetector) Category() string { return CategoryTiming }

func (d *TimestampGapDetector) CheckLine(ctx LineContext) (float64, bool) {
	t, ok := parseLeadingTimestamp(ctx.Line)
	if !ok {
		return 0, false
	}
	defer func() {
		d.prev = t
		d.hasPrev = true
	}()
	if !d.hasPrev {
		return 0, false
	}
	gap := t.Sub(d.prev)
	if gap <= 0 {
		return 0, false
	}
	median := d.medianGap()
	d.recordGap(gap)
	if median <= 0 {
		return 0, false
	}
	if gap < time.Duration(d.GapMultiplier*float64(median)) {
		return 0, false
	}
	ratio := float64(gap) / float64(median)
	severity := 0.3 + 0.05*ratio
	if severity > 0.85 {
		severity = 0.85
	}
	return severity, true
}

func (d *TimestampGapDetector) recordGap(gap time.Duration) {
	d.gaps = append(d.gaps, gap)
	if len(d.gaps) > 256 {
		d.gaps = d.gaps[len(d.gaps)-256:]
	}
}

func (d *TimestampGapDetector) medianGap() time.Duration {
	if len(d.gaps) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), d.gaps...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	return sorted[len(sorted)/2]
}

func (d *TimestampGapDetector) ShouldMergeWithPrevious(ctx LineContext, prevSeverity float64) bool {
	return false
}

func (d *TimestampGapDetector) GetDescription(lines []string) string {
	return "Timestamp gap"
}
