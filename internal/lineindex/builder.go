package lineindex

import (
	"bufio"
	"bytes"
	"io"

	"github.com/standardbeagle/rx/internal/rxtypes"
)

// BuildOptions configures Build.
type BuildOptions struct {
	// Step is the approximate byte distance between checkpoints. Zero or
	// negative falls back to 1 MiB; rx derives it from the large-file
	// threshold (spec.md §4.4: step = threshold / 50, default 1 MiB).
	Step int64

	// ReservoirSize bounds the line-length sample used for percentiles.
	ReservoirSize int
}

// Build performs the single forward pass described in spec.md §4.4,
// producing a LineIndex and LineStats from r. It also detects the line
// ending style from the first 64 KiB.
func Build(r io.Reader, opts BuildOptions) (LineIndex, LineStats, rxtypes.LineEnding, error) {
	if opts.Step <= 0 {
		opts.Step = 1024 * 1024
	}

	br := bufio.NewReaderSize(r, 256*1024)

	idx := LineIndex{
		Checkpoints: []Checkpoint{{LineNo: 1, ByteOffset: 0}},
		Step:        opts.Step,
	}
	acc := newStatAccumulator(opts.ReservoirSize)

	var currentOffset int64
	var currentLine int64
	nextCheckpoint := opts.Step
	var emptyLines int64
	var maxByteOffset int64

	le := newLineEndingDetector()

	// ReadBytes splits on '\n', so a file using bare CR as its sole
	// terminator is read as one long line for line counts, checkpoints and
	// statistics; the line-ending detector still counts every bare CR
	// inside the lines it probes.
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			currentLine++
			le.observe(line, currentOffset)

			trimmed := bytes.TrimRight(line, "\r\n")
			if isBlank(trimmed) {
				emptyLines++
			} else {
				acc.observe(int64(len(trimmed)))
			}

			currentOffset += int64(len(line))
			maxByteOffset = currentOffset

			if currentOffset >= nextCheckpoint {
				idx.Checkpoints = append(idx.Checkpoints, Checkpoint{LineNo: currentLine + 1, ByteOffset: currentOffset})
				nextCheckpoint = currentOffset + opts.Step
			}
		}

		if err != nil {
			if err == io.EOF {
				break
			}
			return LineIndex{}, LineStats{}, rxtypes.LineEndingLF, err
		}
	}

	median, p95, p99 := acc.percentiles()
	stats := LineStats{
		LineCount:      currentLine,
		EmptyLineCount: emptyLines,
		MaxLineLength:  acc.maxLength,
		MaxLineNumber:  currentLine,
		MaxByteOffset:  maxByteOffset,
		Mean:           acc.mean,
		Stddev:         acc.stddev(),
		Median:         median,
		P95:            p95,
		P99:            p99,
	}

	return idx, stats, le.result(), nil
}

func isBlank(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\v', '\f':
			continue
		default:
			return false
		}
	}
	return true
}

// lineEndingDetector counts terminator styles over the first 64 KiB
// (spec.md §4.4 "Line-ending detection").
type lineEndingDetector struct {
	budget   int64
	crlf     int
	cr       int
	lf       int
	done     bool
}

const lineEndingProbeBudget = 64 * 1024

func newLineEndingDetector() *lineEndingDetector {
	return &lineEndingDetector{budget: lineEndingProbeBudget}
}

func (d *lineEndingDetector) observe(line []byte, offsetBefore int64) {
	if d.done || offsetBefore >= d.budget {
		d.done = offsetBefore >= d.budget
		return
	}
	for i, c := range line {
		switch c {
		case '\r':
			if i+1 < len(line) && line[i+1] == '\n' {
				d.crlf++
			} else {
				d.cr++
			}
		case '\n':
			if i == 0 || line[i-1] != '\r' {
				d.lf++
			}
		}
	}
}

func (d *lineEndingDetector) result() rxtypes.LineEnding {
	styles := 0
	var only rxtypes.LineEnding = rxtypes.LineEndingLF
	if d.crlf > 0 {
		styles++
		only = rxtypes.LineEndingCRLF
	}
	if d.cr > 0 {
		styles++
		only = rxtypes.LineEndingCR
	}
	if d.lf > 0 {
		styles++
		only = rxtypes.LineEndingLF
	}
	switch styles {
	case 0:
		return rxtypes.LineEndingLF
	case 1:
		return only
	default:
		return rxtypes.LineEndingMixed
	}
}
