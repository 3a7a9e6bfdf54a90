package anomaly

import "math"

// LineLengthSpikeDetector flags lines whose length deviates sharply from
// the running mean (spec.md §4.8 "line_length_spike":
// |len-mean| > 3*stddev and len > min_len).
type LineLengthSpikeDetector struct {
	ZThreshold float64
	MinLength  int
}

func NewLineLengthSpikeDetector() *LineLengthSpikeDetector {
	return &LineLengthSpikeDetector{ZThreshold: 3.0, MinLength: 200}
}

func (d *LineLengthSpikeDetector) Name() string     { return "line_length_spike" }
func (d *LineLengthSpikeDetector) Category() string { return CategoryFormat }

func (d *LineLengthSpikeDetector) CheckLine(ctx LineContext) (float64, bool) {
	length := len(ctx.Line)
	if length <= d.MinLength || ctx.StddevLen <= 0 {
		return 0, false
	}
	z := math.Abs(float64(length)-ctx.MeanLen) / ctx.StddevLen
	if z <= d.ZThreshold {
		return 0, false
	}
	severity := math.Min(0.95, 0.4+0.1*(z-d.ZThreshold))
	return severity, true
}

func (d *LineLengthSpikeDetector) ShouldMergeWithPrevious(ctx LineContext, prevSeverity float64) bool {
	return false
}

func (d *LineLengthSpikeDetector) GetDescription(lines []string) string {
	return "Line length spike"
}
