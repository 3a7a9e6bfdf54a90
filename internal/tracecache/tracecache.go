// Package tracecache implements rx's trace cache (C7): a per-(file,
// patterns, matching flags) record of match locations, cheap enough to
// store because it carries only (pattern_index, offset, line_number) and
// reconstructs line text and submatches on hit by re-reading the source at
// each cached offset.
package tracecache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/standardbeagle/rx/internal/rxtypes"
)

// MatchRef is one cached match's minimal identity.
type MatchRef struct {
	PatternIndex int   `json:"pattern_index"`
	Offset       int64 `json:"offset"`
	LineNumber   int64 `json:"line_number"`
}

// Record is the persisted TraceCacheRecord (spec.md §3).
type Record struct {
	Version          int                  `json:"version"`
	SourcePath       string               `json:"source_path"`
	SourceSizeBytes  int64                `json:"source_size_bytes"`
	SourceModifiedAt int64                `json:"source_modified_at"` // unix nanoseconds
	Patterns         []string             `json:"patterns"`
	MatchingFlags    []string             `json:"matching_flags"`
	PatternsHash     string               `json:"patterns_hash"`
	CreatedAt        int64                `json:"created_at"` // unix nanoseconds
	Matches          []MatchRef           `json:"matches"`
}

// CurrentVersion is the Record format version.
const CurrentVersion = 1

// Key identifies one cache slot: a file plus the pattern/flag set that was
// searched for.
type Key struct {
	AbsPath  string
	Identity rxtypes.FileIdentity
	Patterns []string
	Flags    rxtypes.MatchingFlags
}

// PatternsHash computes the first 16 hex chars of
// sha256(json({patterns: sorted, flags: sorted_matching_only})).
func PatternsHash(patterns []string, flags rxtypes.MatchingFlags) string {
	sortedPatterns := append([]string(nil), patterns...)
	sort.Strings(sortedPatterns)
	sortedFlags := flags.Sorted()
	sort.Strings(sortedFlags)

	payload, _ := json.Marshal(struct {
		Patterns []string `json:"patterns"`
		Flags    []string `json:"flags"`
	}{sortedPatterns, sortedFlags})

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])[:16]
}

// PathHash is sha256(abs_path)[:16].
func PathHash(absPath string) string {
	sum := sha256.Sum256([]byte(absPath))
	return hex.EncodeToString(sum[:])[:16]
}

// Path returns the on-disk location for a Key under cacheRoot:
// <cache_root>/trace_cache/<patterns_hash>/<path_hash>_<basename>.json.
func Path(cacheRoot string, k Key) string {
	patternsHash := PatternsHash(k.Patterns, k.Flags)
	pathHash := PathHash(k.AbsPath)
	base := sanitizeBasename(filepath.Base(k.AbsPath))
	return filepath.Join(cacheRoot, "trace_cache", patternsHash, pathHash+"_"+base+".json")
}

func sanitizeBasename(base string) string {
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}

// Eligible reports whether a scan's parameters make it cacheable
// (spec.md §4.7 "Eligibility"): the file is at or above the large-file
// threshold, max_results was unset, and the scan completed cleanly.
func Eligible(fileSize, largeFileThreshold int64, maxResultsSet bool, scanFailed bool) bool {
	return fileSize >= largeFileThreshold && !maxResultsSet && !scanFailed
}

// Load reads and decodes the record at path, validating that its
// (size, mtime) and patterns_hash still match current.
func Load(path string, current rxtypes.FileIdentity, k Key) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if !r.valid(current, k) {
		return nil, os.ErrNotExist
	}
	return &r, nil
}

func (r *Record) valid(current rxtypes.FileIdentity, k Key) bool {
	if r.Version != CurrentVersion {
		return false
	}
	if r.SourceSizeBytes != current.SizeBytes || r.SourceModifiedAt != current.ModifiedAt.UnixNano() {
		return false
	}
	wantHash := PatternsHash(k.Patterns, k.Flags)
	return r.PatternsHash == wantHash
}

// Save writes r to path, creating parent directories as needed.
func Save(path string, r *Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
