package scan

import (
	"bufio"
	"io"
	"regexp"

	"github.com/standardbeagle/rx/internal/rxtypes"
	"github.com/standardbeagle/rx/internal/tracecache"
)

// tryCacheHit attempts to satisfy req entirely from a prior trace-cache
// record (spec.md §4.6 step 1). A hit reconstructs full Match values by
// re-reading each cached offset's line text and re-applying the matched
// pattern locally for submatch spans; nothing here re-invokes the regex
// engine subprocess.
func (d *Driver) tryCacheHit(path string, fileToken string, identity rxtypes.FileIdentity, req Request) ([]rxtypes.Match, bool) {
	key := tracecache.Key{AbsPath: path, Identity: identity, Patterns: req.Patterns, Flags: req.Flags}
	cachePath := tracecache.Path(d.CacheDir, key)

	record, err := tracecache.Load(cachePath, identity, key)
	if err != nil {
		return nil, false
	}

	src, err := openSource(path)
	if err != nil {
		return nil, false
	}
	defer src.close()

	patterns := compilePatterns(req.Patterns, req.Flags)

	matches := make([]rxtypes.Match, 0, len(record.Matches))
	for _, ref := range record.Matches {
		line, err := readLineAt(src.ra, src.size, ref.Offset)
		if err != nil {
			continue
		}
		m := rxtypes.Match{
			FileID:              fileToken,
			ByteOffsetLineStart: ref.Offset,
			LineNumberRelative:  ref.LineNumber,
			LineNumberAbsolute:  ref.LineNumber,
			LineText:            line,
		}
		if ref.PatternIndex >= 0 && ref.PatternIndex < len(req.Patterns) {
			m.PatternID = rxtypes.PatternToken(ref.PatternIndex)
		}
		if ref.PatternIndex >= 0 && ref.PatternIndex < len(patterns) && patterns[ref.PatternIndex] != nil {
			m.Submatches = submatchesFor(patterns[ref.PatternIndex], line)
		}
		matches = append(matches, m)
	}

	return matches, true
}

// writeCacheRecord persists a completed scan's matches for future trace
// cache hits (spec.md §4.7). Only the minimal (pattern_index, offset,
// line_number) triple is stored per match.
func (d *Driver) writeCacheRecord(path string, identity rxtypes.FileIdentity, req Request, matches []rxtypes.Match) {
	key := tracecache.Key{AbsPath: path, Identity: identity, Patterns: req.Patterns, Flags: req.Flags}
	cachePath := tracecache.Path(d.CacheDir, key)

	refs := make([]tracecache.MatchRef, len(matches))
	for i, m := range matches {
		idx := rxtypes.PatternTokenIndex(m.PatternID)
		if idx < 0 {
			idx = 0
		}
		refs[i] = tracecache.MatchRef{
			PatternIndex: idx,
			Offset:       m.ByteOffsetLineStart,
			LineNumber:   m.LineNumberAbsolute,
		}
	}

	record := &tracecache.Record{
		Version:          tracecache.CurrentVersion,
		SourcePath:       path,
		SourceSizeBytes:  identity.SizeBytes,
		SourceModifiedAt: identity.ModifiedAt.UnixNano(),
		Patterns:         req.Patterns,
		MatchingFlags:    req.Flags.Sorted(),
		PatternsHash:     tracecache.PatternsHash(req.Patterns, req.Flags),
		Matches:          refs,
	}
	_ = tracecache.Save(cachePath, record)
}

func readLineAt(ra io.ReaderAt, size, offset int64) (string, error) {
	if offset >= size {
		return "", io.EOF
	}
	r := bufio.NewReader(io.NewSectionReader(ra, offset, size-offset))
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, nil
}

func compilePatterns(patterns []string, flags rxtypes.MatchingFlags) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		expr := p
		if flags.FixedStrings {
			expr = regexp.QuoteMeta(p)
		}
		if flags.IgnoreCase && !flags.CaseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			continue
		}
		out[i] = re
	}
	return out
}

func submatchesFor(re *regexp.Regexp, line string) []rxtypes.Submatch {
	loc := re.FindStringIndex(line)
	if loc == nil {
		return nil
	}
	return []rxtypes.Submatch{{Text: line[loc[0]:loc[1]], StartCol: loc[0], EndCol: loc[1]}}
}
