package prefixtpl

import (
	"bufio"
	"io"
	"strings"
)

// Sample reads up to opts.SampleSize non-empty lines from r, skipping the
// first opts.SkipRatio fraction of the file (boot-time logs often differ
// in format from steady-state output) and discarding the partial line the
// skip lands in (spec.md §4.9 "Sampling").
func Sample(r io.ReaderAt, size int64, opts Options) ([]string, error) {
	skipBytes := int64(float64(size) * opts.SkipRatio)
	if skipBytes < 0 {
		skipBytes = 0
	}
	if skipBytes > size {
		skipBytes = size
	}

	sr := io.NewSectionReader(r, skipBytes, size-skipBytes)
	br := bufio.NewReader(sr)

	if skipBytes > 0 {
		// Discard whatever partial line the skip offset landed inside.
		if _, err := br.ReadString('\n'); err != nil && err != io.EOF {
			return nil, err
		}
	}

	var lines []string
	maxScan := opts.SampleSize * 2
	for i := 0; i < maxScan && len(lines) < opts.SampleSize; i++ {
		line, err := br.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			lines = append(lines, line)
		}
		if err != nil {
			break
		}
	}

	return lines, nil
}
