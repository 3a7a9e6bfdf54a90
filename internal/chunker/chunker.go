// Package chunker plans byte-range chunks for parallel regex-engine
// dispatch over a single file (rx's C5), and allocates a bounded worker
// budget across many files queued for a scan.
package chunker

import (
	"bufio"
	"io"
)

// Chunk is a half-open byte range [Start, End) of a file, newline-aligned
// at both ends except for the file's own start and end.
type Chunk struct {
	Start int64
	End   int64
}

// Plan computes the chunk set for one file, per spec.md §4.5: a file at or
// under minChunkBytes gets a single chunk; otherwise up to maxChunksPerFile
// evenly spaced starting offsets are computed and each (after the first)
// is snapped forward to the next newline boundary using r directly.
func Plan(r io.ReaderAt, fileSize int64, minChunkBytes int64, maxChunksPerFile int) ([]Chunk, error) {
	if fileSize <= minChunkBytes {
		return []Chunk{{Start: 0, End: fileSize}}, nil
	}

	nChunks := ceilDiv(fileSize, minChunkBytes)
	if nChunks > int64(maxChunksPerFile) {
		nChunks = int64(maxChunksPerFile)
	}
	if nChunks < 1 {
		nChunks = 1
	}

	starts := make([]int64, nChunks)
	for i := int64(0); i < nChunks; i++ {
		starts[i] = fileSize * i / nChunks
	}
	starts[0] = 0

	for i := int64(1); i < nChunks; i++ {
		snapped, err := snapToNewline(r, starts[i], fileSize)
		if err != nil {
			return nil, err
		}
		starts[i] = snapped
	}

	chunks := make([]Chunk, 0, nChunks)
	for i := int64(0); i < nChunks; i++ {
		start := starts[i]
		end := fileSize
		if i+1 < nChunks {
			end = starts[i+1]
		}
		if start >= end {
			continue // snapping collapsed this chunk into its neighbor
		}
		chunks = append(chunks, Chunk{Start: start, End: end})
	}
	return chunks, nil
}

func ceilDiv(a, b int64) int64 {
	if b <= 0 {
		return 1
	}
	return (a + b - 1) / b
}

// snapToNewline implements spec.md §4.5's snapping rule: if the byte just
// before off is a newline, off is already a valid chunk boundary; otherwise read forward until a newline is consumed and
// return the position right after it.
func snapToNewline(r io.ReaderAt, off, fileSize int64) (int64, error) {
	if off <= 0 || off >= fileSize {
		return off, nil
	}

	prev := make([]byte, 1)
	if _, err := r.ReadAt(prev, off-1); err != nil && err != io.EOF {
		return 0, err
	}
	if prev[0] == '\n' {
		return off, nil
	}

	br := bufio.NewReader(io.NewSectionReader(r, off, fileSize-off))
	pos := off
	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF {
				return fileSize, nil
			}
			return 0, err
		}
		pos++
		if b == '\n' {
			return pos, nil
		}
	}
}
