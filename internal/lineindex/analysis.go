package lineindex

import (
	"bufio"
	"io"
	"os"

	"github.com/standardbeagle/rx/internal/anomaly"
	"github.com/standardbeagle/rx/internal/prefixtpl"
	"github.com/standardbeagle/rx/internal/rxtypes"
)

// AnalysisOptions controls the C8/C9 pass BuildWithAnalysis runs over a
// file on top of the line-offset index itself (spec.md §4.4, §4.8).
type AnalysisOptions struct {
	WindowSize int
	MaxRanges  int
}

// Analyze mines a dominant prefix template (C9) from f and runs it
// through C8's anomaly detector pipeline, producing the
// (Anomalies, AnomalySummary) pair a UnifiedFileIndex carries. This is
// the indexer's responsibility per spec.md §4.4 rather than the CLI's:
// cmd/rx's index command only decides whether analysis was requested and
// stores the result.
//
// When no prefix template clears prefixtpl's fallback coverage
// threshold, prefix_deviation is left out of the detector roster
// entirely (anomaly.WithPrefixDeviation's documented conditional-
// inclusion rule).
func Analyze(f *os.File, size int64, opts AnalysisOptions) ([]rxtypes.AnomalyRange, map[string]int, error) {
	popts := prefixtpl.DefaultOptions()
	sample, err := prefixtpl.Sample(f, size, popts)
	if err != nil {
		return nil, nil, err
	}

	detectors := anomaly.DefaultDetectors()
	if pattern, ok := prefixtpl.Extract(sample, popts); ok {
		detectors = anomaly.WithPrefixDeviation(detectors, pattern.Regex)
	}

	pipeline := anomaly.NewPipeline(detectors)
	if opts.WindowSize > 0 {
		pipeline.WindowSize = opts.WindowSize
	}
	if opts.MaxRanges > 0 {
		pipeline.MaxRanges = opts.MaxRanges
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, nil, err
	}

	lines := make(chan anomaly.LineInput)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
		var lineNo int64
		var offset int64
		for scanner.Scan() {
			lineNo++
			text := scanner.Text()
			lines <- anomaly.LineInput{Text: text, LineNumber: lineNo, ByteOffset: offset}
			offset += int64(len(text)) + 1
		}
	}()

	ranges := pipeline.Run(lines)

	summary := make(map[string]int, len(detectors))
	for _, r := range ranges {
		summary[r.Detector]++
	}
	return ranges, summary, nil
}

// BuildWithAnalysis runs Build and, when opts is non-nil, also runs
// Analyze, attaching both results to the returned UnifiedFileIndex
// (spec.md §4.4 "index --analyze").
func BuildWithAnalysis(f *os.File, identity rxtypes.FileIdentity, path string, buildOpts BuildOptions, analysis *AnalysisOptions) (*UnifiedFileIndex, error) {
	idx, stats, ending, err := Build(f, buildOpts)
	if err != nil {
		return nil, err
	}

	u := &UnifiedFileIndex{
		Version:          CurrentVersion,
		SourcePath:       path,
		SourceSizeBytes:  identity.SizeBytes,
		SourceModifiedAt: identity.ModifiedAt.UnixNano(),
		Index:            idx,
		Stats:            stats,
		LineEnding:       ending,
	}

	if analysis != nil {
		ranges, summary, err := Analyze(f, identity.SizeBytes, *analysis)
		if err != nil {
			return nil, err
		}
		u.Anomalies = ranges
		u.AnomalySummary = summary
		u.AnalysisPerformed = true
	}

	return u, nil
}
