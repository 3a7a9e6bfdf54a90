package anomaly

import (
	"container/heap"
	"math"
	"sort"

	"github.com/standardbeagle/rx/internal/rxtypes"
)

const (
	defaultWindowSize = 32
	defaultMaxRanges  = 500
)

// LineInput is one line fed into the pipeline in file order.
type LineInput struct {
	Text       string
	LineNumber int64
	ByteOffset int64
}

// Pipeline runs a detector set over a line stream in a single pass,
// maintaining a sliding window and running length statistics, merging
// consecutive detector hits into ranges, and bounding total output via a
// capacity-limited min-heap keyed on severity (spec.md §4.8).
type Pipeline struct {
	Detectors  []Detector
	WindowSize int
	MaxRanges  int
}

func NewPipeline(detectors []Detector) *Pipeline {
	return &Pipeline{Detectors: detectors, WindowSize: defaultWindowSize, MaxRanges: defaultMaxRanges}
}

func (p *Pipeline) windowSize() int {
	if p.WindowSize <= 0 {
		return defaultWindowSize
	}
	return p.WindowSize
}

func (p *Pipeline) maxRanges() int {
	if p.MaxRanges <= 0 {
		return defaultMaxRanges
	}
	return p.MaxRanges
}

// PrescanPatterns returns the union of every detector's advertised
// prescan patterns, for driving an external regex-engine fast filter
// ahead of the streaming pass.
func (p *Pipeline) PrescanPatterns() []PrescanPattern {
	var out []PrescanPattern
	for _, d := range p.Detectors {
		if pc, ok := d.(PrescanCapable); ok {
			out = append(out, pc.PrescanPatterns()...)
		}
	}
	return out
}

type openRange struct {
	detector    Detector
	startLine   int64
	startOffset int64
	endLine     int64
	endOffset   int64
	severity    float64
	lines       []string
}

func (o *openRange) extend(line LineInput, sev float64) {
	o.endLine = line.LineNumber
	o.endOffset = line.ByteOffset + int64(len(line.Text))
	o.lines = append(o.lines, line.Text)
	if sev > o.severity {
		o.severity = sev
	}
}

// Run consumes lines in order and returns the final, deduped, capacity-
// bounded set of anomaly ranges.
func (p *Pipeline) Run(lines <-chan LineInput) []rxtypes.AnomalyRange {
	window := make([]string, 0, p.windowSize())
	var count int64
	var mean, m2 float64

	open := map[string]*openRange{}
	var finished []rxtypes.AnomalyRange

	closeOne := func(name string) {
		o, ok := open[name]
		if !ok {
			return
		}
		finished = append(finished, rxtypes.AnomalyRange{
			StartLine:   o.startLine,
			EndLine:     o.endLine,
			StartOffset: o.startOffset,
			EndOffset:   o.endOffset,
			Severity:    o.severity,
			Category:    o.detector.Category(),
			Description: o.detector.GetDescription(o.lines),
			Detector:    name,
		})
		delete(open, name)
	}

	for line := range lines {
		length := float64(len(line.Text))
		stddev := 0.0
		if count > 1 {
			stddev = math.Sqrt(m2 / float64(count-1))
		}
		ctx := LineContext{
			Line:       line.Text,
			LineNumber: line.LineNumber,
			ByteOffset: line.ByteOffset,
			Window:     window,
			MeanLen:    mean,
			StddevLen:  stddev,
		}

		for _, det := range p.Detectors {
			name := det.Name()
			if o, ok := open[name]; ok {
				if det.ShouldMergeWithPrevious(ctx, o.severity) {
					o.extend(line, o.severity)
					continue
				}
				closeOne(name)
			}
			if sev, ok := det.CheckLine(ctx); ok {
				open[name] = &openRange{
					detector:    det,
					startLine:   line.LineNumber,
					startOffset: line.ByteOffset,
					endLine:     line.LineNumber,
					endOffset:   line.ByteOffset + int64(len(line.Text)),
					severity:    sev,
					lines:       []string{line.Text},
				}
			}
		}

		window = append(window, line.Text)
		if len(window) > p.windowSize() {
			window = window[len(window)-p.windowSize():]
		}

		count++
		delta := length - mean
		mean += delta / float64(count)
		m2 += delta * (length - mean)
	}

	for name := range open {
		closeOne(name)
	}

	deduped := dedupRanges(finished)
	return boundBySeverity(deduped, p.maxRanges())
}

// dedupRanges collapses ranges that cover the exact same line span,
// keeping the highest severity and breaking ties by detector name order.
func dedupRanges(ranges []rxtypes.AnomalyRange) []rxtypes.AnomalyRange {
	type key struct {
		start, end int64
	}
	best := map[key]rxtypes.AnomalyRange{}
	order := []key{}
	for _, r := range ranges {
		k := key{r.StartLine, r.EndLine}
		cur, ok := best[k]
		if !ok {
			best[k] = r
			order = append(order, k)
			continue
		}
		if r.Severity > cur.Severity || (r.Severity == cur.Severity && r.Detector < cur.Detector) {
			best[k] = r
		}
	}
	out := make([]rxtypes.AnomalyRange, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	return out
}

type rangeHeap []rxtypes.AnomalyRange

func (h rangeHeap) Len() int            { return len(h) }
func (h rangeHeap) Less(i, j int) bool  { return h[i].Severity < h[j].Severity }
func (h rangeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *rangeHeap) Push(x interface{}) { *h = append(*h, x.(rxtypes.AnomalyRange)) }
func (h *rangeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// boundBySeverity keeps at most maxRanges entries, evicting the lowest
// severity ranges first once capacity is exceeded, via a min-heap.
func boundBySeverity(ranges []rxtypes.AnomalyRange, maxRanges int) []rxtypes.AnomalyRange {
	if len(ranges) <= maxRanges {
		sort.Slice(ranges, func(i, j int) bool { return ranges[i].StartLine < ranges[j].StartLine })
		return ranges
	}

	h := make(rangeHeap, 0, maxRanges)
	heap.Init(&h)
	for _, r := range ranges {
		if h.Len() < maxRanges {
			heap.Push(&h, r)
			continue
		}
		if r.Severity > h[0].Severity {
			heap.Pop(&h)
			heap.Push(&h, r)
		}
	}
	out := make([]rxtypes.AnomalyRange, len(h))
	copy(out, h)
	sort.Slice(out, func(i, j int) bool { return out[i].StartLine < out[j].StartLine })
	return out
}
