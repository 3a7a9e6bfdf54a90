package scan

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/standardbeagle/rx/internal/config"
	"github.com/standardbeagle/rx/internal/lineindex"
	"github.com/standardbeagle/rx/internal/rxcompress"
	"github.com/standardbeagle/rx/internal/rxtypes"
	"github.com/standardbeagle/rx/internal/security"
	"github.com/standardbeagle/rx/internal/tracecache"
)

// Driver orchestrates one multi-file search (spec.md §4.6). It owns the
// global subprocess concurrency cap and wires C1 (sandbox), C4 (index),
// C5 (chunking), C6 (this package), and C7 (trace cache) together.
type Driver struct {
	Sandbox            *security.Sandbox
	CacheDir           string
	LargeFileThreshold int64
	MaxSubprocesses    int
	NoCache            bool
	NoIndex            bool
	MinChunkBytes      int64
	MaxChunksPerFile   int
	ReservoirSize      int

	// EngineRun dispatches one chunk to the regex engine; overridable in
	// tests. Defaults to rxengine.Run.
	EngineRun engineRunFunc
}

// NewDriver builds a Driver from a loaded Config.
func NewDriver(sandbox *security.Sandbox, cfg *config.Config) *Driver {
	return &Driver{
		Sandbox:            sandbox,
		CacheDir:           cfg.CacheDir,
		LargeFileThreshold: cfg.LargeFileBytes(),
		MaxSubprocesses:    cfg.MaxSubprocesses,
		NoCache:            cfg.NoCache,
		NoIndex:            cfg.NoIndex,
		MinChunkBytes:      cfg.Chunk.MinChunkBytes,
		MaxChunksPerFile:   cfg.Chunk.MaxChunksPerFile,
		ReservoirSize:      cfg.SampleSizeLines,
		EngineRun:          defaultEngineRun,
	}
}

// Search runs one scan operation across req.Paths (spec.md §4.6).
// A path that fails sandbox validation is fatal for the whole operation
// (spec.md §7 PathOutsideSandbox); every other per-file failure is
// localized to a skipped_files entry.
func (d *Driver) Search(ctx context.Context, req Request) (*Result, error) {
	result := &Result{
		Files:    map[string]string{},
		Patterns: map[string]string{},
	}
	for i, p := range req.Patterns {
		result.Patterns[rxtypes.PatternToken(i)] = p
	}

	var resolved []string
	for _, p := range req.Paths {
		r, err := d.Sandbox.Validate(p)
		if err != nil {
			return nil, err
		}
		if info, statErr := os.Stat(r); statErr == nil && info.IsDir() {
			files, err := d.Sandbox.ExpandDirectory(r)
			if err != nil {
				return nil, err
			}
			resolved = append(resolved, files...)
			continue
		}
		resolved = append(resolved, r)
	}

	fileTokens := make(map[string]string, len(resolved))
	for _, path := range resolved {
		if _, ok := fileTokens[path]; ok {
			continue
		}
		token := rxtypes.FileToken(len(fileTokens))
		fileTokens[path] = token
		result.Files[token] = path
	}

	sem := semaphore.NewWeighted(int64(maxInt(1, d.MaxSubprocesses)))
	var matchCount atomic.Int64
	var mu sync.Mutex
	budget := int64(req.MaxResults)

	for _, path := range resolved {
		if budget > 0 && matchCount.Load() >= budget {
			break
		}
		d.searchFile(ctx, path, fileTokens[path], req, sem, &matchCount, budget, &mu, result)
	}

	return result, nil
}

func (d *Driver) searchFile(
	ctx context.Context,
	path string,
	fileToken string,
	req Request,
	sem *semaphore.Weighted,
	matchCount *atomic.Int64,
	budget int64,
	mu *sync.Mutex,
	result *Result,
) {
	processable, err := rxcompress.IsProcessable(path)
	if err != nil || !processable {
		appendSkip(mu, result, path, "not_a_processable_file")
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		appendSkip(mu, result, path, "not_a_processable_file")
		return
	}

	src, err := openSource(path)
	if err != nil {
		appendSkip(mu, result, path, err.Error())
		return
	}
	defer src.close()

	identity := rxtypes.FileIdentity{SizeBytes: src.size, ModifiedAt: info.ModTime()}
	large := src.size >= d.LargeFileThreshold
	maxResultsSet := req.MaxResults > 0
	useCache := req.UseCache && !d.NoCache

	if useCache && large && !maxResultsSet {
		if matches, ok := d.tryCacheHit(path, fileToken, identity, req); ok {
			mu.Lock()
			result.Matches = append(result.Matches, matches...)
			result.ScannedFiles = append(result.ScannedFiles, path)
			mu.Unlock()
			matchCount.Add(int64(len(matches)))
			return
		}
	}

	var index *lineindex.UnifiedFileIndex
	if req.UseIndex && !d.NoIndex {
		index = d.loadOrBuildIndex(path, src, identity)
	}

	matches, scannedOK := d.dispatchChunks(ctx, src, req, sem, matchCount, budget, fileToken, index)

	mu.Lock()
	result.Matches = append(result.Matches, matches...)
	result.ScannedFiles = append(result.ScannedFiles, path)
	if budget > 0 && matchCount.Load() >= budget {
		result.Truncated = true
	}
	mu.Unlock()

	if useCache && !maxResultsSet && scannedOK && tracecache.Eligible(src.size, d.LargeFileThreshold, maxResultsSet, !scannedOK) {
		d.writeCacheRecord(path, identity, req, matches)
	}
}

func (d *Driver) loadOrBuildIndex(path string, src *source, identity rxtypes.FileIdentity) *lineindex.UnifiedFileIndex {
	cachePath := lineindex.CachePath(d.CacheDir, path)
	if cached, err := lineindex.Load(cachePath); err == nil && cached.Valid(identity, false, false) {
		return cached
	}

	step := d.LargeFileThreshold / 50
	if step <= 0 {
		step = 1 << 20
	}
	idx, stats, ending, err := lineindex.Build(&readerAtReader{ra: src.ra, size: src.size}, lineindex.BuildOptions{Step: step, ReservoirSize: d.ReservoirSize})
	if err != nil {
		return nil
	}

	u := &lineindex.UnifiedFileIndex{
		Version:          lineindex.CurrentVersion,
		SourcePath:       path,
		SourceSizeBytes:  identity.SizeBytes,
		SourceModifiedAt: identity.ModifiedAt.UnixNano(),
		Index:            idx,
		Stats:            stats,
		LineEnding:       ending,
	}
	_ = lineindex.Save(cachePath, u)
	return u
}

func appendSkip(mu *sync.Mutex, result *Result, path, reason string) {
	mu.Lock()
	result.SkippedFiles = append(result.SkippedFiles, SkippedFile{Path: path, Reason: reason})
	mu.Unlock()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// newCorrelationID returns a random UUID string. No chunk dispatch path
// calls it, so ChunkFailure errors carry no correlation id.
func newCorrelationID() string {
	return uuid.NewString()
}
