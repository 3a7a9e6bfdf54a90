package lineindex

import (
	"bufio"
	"io"

	"github.com/standardbeagle/rx/internal/rxtypes"
)

// LargeFileThresholdBytes is the size at which Build should be skipped in
// favor of BuildFastPath (spec.md §4.4 "Fast path for very large files").
const LargeFileThresholdBytes = 1 << 30 // 1 GiB

// BuildFastPath counts lines and detects the line-ending style without
// building checkpoints or line-length statistics, for files at or above
// LargeFileThresholdBytes. The returned LineStats carries only LineCount
// and MaxLineNumber; every other field is the zero value, standing in for
// the "null" statistics spec.md §4.4 calls for. Anomaly hits, if
// requested, are obtained separately by streaming the regex engine over
// the file (C8) rather than here.
func BuildFastPath(r io.Reader) (LineStats, rxtypes.LineEnding, error) {
	br := bufio.NewReaderSize(r, 256*1024)
	le := newLineEndingDetector()

	var lineCount int64
	var offset int64
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			lineCount++
			le.observe(line, offset)
			offset += int64(len(line))
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return LineStats{}, rxtypes.LineEndingLF, err
		}
	}

	return LineStats{LineCount: lineCount, MaxLineNumber: lineCount}, le.result(), nil
}
