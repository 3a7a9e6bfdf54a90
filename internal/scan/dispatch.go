package scan

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/standardbeagle/rx/internal/chunker"
	"github.com/standardbeagle/rx/internal/lineindex"
	"github.com/standardbeagle/rx/internal/rxengine"
	"github.com/standardbeagle/rx/internal/rxtypes"
)

type engineRunFunc func(ctx context.Context, stdin io.Reader, b rxengine.BuildArgs) (<-chan rxengine.Event, <-chan error)

func defaultEngineRun(ctx context.Context, stdin io.Reader, b rxengine.BuildArgs) (<-chan rxengine.Event, <-chan error) {
	return rxengine.Run(ctx, stdin, b)
}

// dispatchChunks plans src's chunks, spawns one regex-engine subprocess
// per chunk under the driver's global semaphore, and merges their events
// into absolute matches in chunk order (spec.md §4.6 steps 2-6). The
// second return value is false if any chunk failed outright.
func (d *Driver) dispatchChunks(
	ctx context.Context,
	src *source,
	req Request,
	sem *semaphore.Weighted,
	matchCount *atomic.Int64,
	budget int64,
	fileToken string,
	index *lineindex.UnifiedFileIndex,
) ([]rxtypes.Match, bool) {
	chunks := d.planChunks(src)
	compiled := compilePatterns(req.Patterns, req.Flags)
	patternTokens := make([]string, len(req.Patterns))
	for i := range req.Patterns {
		patternTokens[i] = rxtypes.PatternToken(i)
	}

	perChunk := make([][]rxtypes.Match, len(chunks))
	ok := true
	var okMu sync.Mutex
	var wg sync.WaitGroup

	for i, c := range chunks {
		if budget > 0 && matchCount.Load() >= budget {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(i int, c chunker.Chunk) {
			defer wg.Done()
			defer sem.Release(1)

			matches, chunkOK := d.runChunk(ctx, src, c, req, matchCount, budget, fileToken, compiled, patternTokens)
			perChunk[i] = matches
			if !chunkOK {
				okMu.Lock()
				ok = false
				okMu.Unlock()
			}
		}(i, c)
	}
	wg.Wait()

	var merged []rxtypes.Match
	for _, m := range perChunk {
		merged = append(merged, m...)
	}

	if index != nil {
		assignAbsoluteLines(merged, src, index)
	} else {
		for i := range merged {
			merged[i].LineNumberAbsolute = -1
			for j := range merged[i].ContextLines {
				merged[i].ContextLines[j].LineNumberAbsolute = -1
			}
		}
	}

	return merged, ok
}

func (d *Driver) planChunks(src *source) []chunker.Chunk {
	if !src.chunkable {
		return []chunker.Chunk{{Start: 0, End: src.size}}
	}
	chunks, err := chunker.Plan(src.ra, src.size, d.MinChunkBytes, d.MaxChunksPerFile)
	if err != nil || len(chunks) == 0 {
		return []chunker.Chunk{{Start: 0, End: src.size}}
	}
	return chunks
}

// runChunk feeds one chunk's bytes to the regex engine over stdin and
// translates its match/context events into rxtypes.Match values with
// chunk-relative offsets resolved to file-absolute ones. Each context
// event is attached to the nearest preceding match in the chunk (spec.md
// §4.6 step 3); a context line that arrives before any match has been
// seen in this chunk (possible at a chunk's leading edge) is dropped,
// since it belongs to a match the previous chunk already emitted.
func (d *Driver) runChunk(
	ctx context.Context,
	src *source,
	c chunker.Chunk,
	req Request,
	matchCount *atomic.Int64,
	budget int64,
	fileToken string,
	compiled []*regexp.Regexp,
	patternTokens []string,
) ([]rxtypes.Match, bool) {
	buf := make([]byte, c.End-c.Start)
	if _, err := src.ra.ReadAt(buf, c.Start); err != nil && err != io.EOF {
		return nil, false
	}

	run := d.EngineRun
	if run == nil {
		run = defaultEngineRun
	}

	events, errc := run(ctx, bytes.NewReader(buf), rxengine.BuildArgs{
		Patterns:      req.Patterns,
		Flags:         req.Flags,
		ContextBefore: req.ContextBefore,
		ContextAfter:  req.ContextAfter,
	})

	var matches []rxtypes.Match
	for ev := range events {
		if budget > 0 && matchCount.Load() >= budget {
			continue // drain remaining events without truncating mid-event
		}
		switch ev.Type {
		case rxengine.EventMatch:
			m := eventToMatch(ev.Match, compiled, patternTokens, c.Start, fileToken)
			matches = append(matches, m)
			matchCount.Add(1)
		case rxengine.EventContext:
			if len(matches) == 0 {
				continue
			}
			last := &matches[len(matches)-1]
			last.ContextLines = append(last.ContextLines, rxtypes.ContextLine{
				ByteOffsetLineStart: c.Start + ev.Context.AbsoluteOffset,
				LineNumberRelative:  ev.Context.LineNumber,
				LineNumberAbsolute:  -1,
				LineText:            ev.Context.Lines.Text,
			})
		}
	}

	if err := <-errc; err != nil {
		return matches, false
	}
	return matches, true
}

func eventToMatch(ev *rxengine.LineEvent, compiled []*regexp.Regexp, patternTokens []string, chunkStart int64, fileToken string) rxtypes.Match {
	var subs []rxtypes.Submatch
	for _, s := range ev.Submatches {
		subs = append(subs, rxtypes.Submatch{Text: s.Match.Text, StartCol: s.Start, EndCol: s.End})
	}

	patternID := ""
	if idx := matchedPatternIndex(compiled, ev.Lines.Text); idx < len(patternTokens) {
		patternID = patternTokens[idx]
	}

	return rxtypes.Match{
		FileID:              fileToken,
		PatternID:           patternID,
		ByteOffsetLineStart: chunkStart + ev.AbsoluteOffset,
		LineNumberRelative:  ev.LineNumber,
		LineNumberAbsolute:  -1,
		LineText:            ev.Lines.Text,
		Submatches:          subs,
	}
}

// matchedPatternIndex finds which compiled pattern produced line, since
// the regex-engine subprocess's match event doesn't itself carry a
// pattern index for multi-pattern jobs (spec.md §6.2). Defaults to 0
// when none match locally (flag divergence between the subprocess and
// this recompilation), matching the single-pattern common case.
func matchedPatternIndex(compiled []*regexp.Regexp, line string) int {
	for i, re := range compiled {
		if re != nil && re.MatchString(line) {
			return i
		}
	}
	return 0
}

// assignAbsoluteLines batch-resolves every match's (and its context
// lines') absolute line number via the file's line-offset index in one
// pass (spec.md §4.6 step 5).
func assignAbsoluteLines(matches []rxtypes.Match, src *source, index *lineindex.UnifiedFileIndex) {
	if len(matches) == 0 {
		return
	}

	var offsets []int64
	for _, m := range matches {
		offsets = append(offsets, m.ByteOffsetLineStart)
		for _, cl := range m.ContextLines {
			offsets = append(offsets, cl.ByteOffsetLineStart)
		}
	}

	ra, ok := src.ra.(io.ReaderAt)
	if !ok {
		return
	}
	infos, err := lineindex.BatchLineInfo(ra, index.Index, offsets)
	if err != nil {
		return
	}

	pos := 0
	for i := range matches {
		matches[i].LineNumberAbsolute = infos[pos].LineNumber
		pos++
		for j := range matches[i].ContextLines {
			matches[i].ContextLines[j].LineNumberAbsolute = infos[pos].LineNumber
			pos++
		}
	}
}
