package lineindex

import (
	"bufio"
	"io"
	"sort"
)

// LineInfo is one resolved (line_number, line_start_offset, line_end_offset)
// triple, as produced by BatchLineInfo.
type LineInfo struct {
	LineNumber  int64
	StartOffset int64
	EndOffset   int64
}

// checkpointForOffset returns the last checkpoint at or before off.
func (idx LineIndex) checkpointForOffset(off int64) Checkpoint {
	i := sort.Search(len(idx.Checkpoints), func(i int) bool {
		return idx.Checkpoints[i].ByteOffset > off
	})
	if i == 0 {
		return idx.Checkpoints[0]
	}
	return idx.Checkpoints[i-1]
}

// checkpointForLine returns the last checkpoint at or before line.
func (idx LineIndex) checkpointForLine(line int64) Checkpoint {
	i := sort.Search(len(idx.Checkpoints), func(i int) bool {
		return idx.Checkpoints[i].LineNo > line
	})
	if i == 0 {
		return idx.Checkpoints[0]
	}
	return idx.Checkpoints[i-1]
}

// LineForOffset resolves the 1-based line number containing byte offset
// off, by binary-searching checkpoints then scanning forward counting
// newlines (spec.md §4.4 "Line-for-offset").
func LineForOffset(r io.ReaderAt, idx LineIndex, off int64) (int64, error) {
	cp := idx.checkpointForOffset(off)
	if off < cp.ByteOffset {
		return cp.LineNo, nil
	}

	sr := io.NewSectionReader(r, cp.ByteOffset, off-cp.ByteOffset+1)
	br := bufio.NewReader(sr)

	line := cp.LineNo
	var pos int64
	for pos < off-cp.ByteOffset {
		b, err := br.ReadByte()
		if err != nil {
			break
		}
		pos++
		if b == '\n' {
			line++
		}
	}
	return line, nil
}

// OffsetForLine resolves the byte offset at which the given 1-based line
// starts, symmetric to LineForOffset.
func OffsetForLine(r io.ReaderAt, idx LineIndex, line int64) (int64, error) {
	cp := idx.checkpointForLine(line)
	if line <= cp.LineNo {
		return cp.ByteOffset, nil
	}

	sr := io.NewSectionReader(r, cp.ByteOffset, 1<<62)
	br := bufio.NewReader(sr)

	curLine := cp.LineNo
	var offset int64
	for curLine < line {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		offset++
		if b == '\n' {
			curLine++
		}
	}
	return cp.ByteOffset + offset, nil
}

// BatchLineInfo resolves (line_number, line_start_offset, line_end_offset)
// for every offset in offsets in a single forward pass: sort the offsets,
// position once at the earliest applicable checkpoint, and walk forward
// once, emitting each triple as its offset is crossed. Cost
// O(file_scan_portion + N log K) rather than O(N · step) (spec.md §4.4).
func BatchLineInfo(r io.ReaderAt, idx LineIndex, offsets []int64) ([]LineInfo, error) {
	if len(offsets) == 0 {
		return nil, nil
	}

	sortedIdx := make([]int, len(offsets))
	for i := range sortedIdx {
		sortedIdx[i] = i
	}
	sort.Slice(sortedIdx, func(a, b int) bool { return offsets[sortedIdx[a]] < offsets[sortedIdx[b]] })

	cp := idx.checkpointForOffset(offsets[sortedIdx[0]])

	sr := io.NewSectionReader(r, cp.ByteOffset, 1<<62)
	br := bufio.NewReader(sr)

	results := make([]LineInfo, len(offsets))
	curLine := cp.LineNo
	lineStart := cp.ByteOffset
	pos := cp.ByteOffset

	next := 0
	var pending []int // indices (into sortedIdx) awaiting this line's end offset

	resolvePending := func(endOffset int64) {
		for _, i := range pending {
			results[sortedIdx[i]] = LineInfo{LineNumber: curLine, StartOffset: lineStart, EndOffset: endOffset}
		}
		pending = pending[:0]
	}

	for next < len(sortedIdx) || len(pending) > 0 {
		for next < len(sortedIdx) && offsets[sortedIdx[next]] == pos {
			pending = append(pending, next)
			next++
		}
		if next >= len(sortedIdx) && len(pending) == 0 {
			break
		}

		b, err := br.ReadByte()
		if err != nil {
			resolvePending(pos)
			break
		}
		pos++
		if b == '\n' {
			resolvePending(pos)
			curLine++
			lineStart = pos
		}
	}

	return results, nil
}
