package anomaly

import (
	"math"
	"strings"
)

// HighEntropyDetector flags lines whose non-whitespace character
// distribution carries unusually high Shannon entropy — base64 blobs,
// tokens, encoded payloads (spec.md §4.8 "high_entropy").
type HighEntropyDetector struct {
	MinLength       int
	EntropyThreshold float64
}

func NewHighEntropyDetector() *HighEntropyDetector {
	return &HighEntropyDetector{MinLength: 40, EntropyThreshold: 4.5}
}

func (d *HighEntropyDetector) Name() string     { return "high_entropy" }
func (d *HighEntropyDetector) Category() string { return CategorySecurity }

func (d *HighEntropyDetector) CheckLine(ctx LineContext) (float64, bool) {
	stripped := stripWhitespace(ctx.Line)
	if len(stripped) < d.MinLength {
		return 0, false
	}
	e := shannonEntropy(stripped)
	if e <= d.EntropyThreshold {
		return 0, false
	}
	severity := math.Min(0.8, 0.3+0.1*(e-d.EntropyThreshold))
	return severity, true
}

func (d *HighEntropyDetector) ShouldMergeWithPrevious(ctx LineContext, prevSeverity float64) bool {
	return false
}

func (d *HighEntropyDetector) GetDescription(lines []string) string {
	return "High entropy content"
}

func stripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	var counts [256]int
	for i := 0; i < len(s); i++ {
		counts[s[i]]++
	}
	n := float64(len(s))
	var entropy float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}
