package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKDL(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".rx.kdl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestApplyKDLFile_MissingFileIsNotAnError(t *testing.T) {
	cfg := Default()
	before := *cfg
	err := applyKDLFile(cfg, filepath.Join(t.TempDir(), ".rx.kdl"))
	require.NoError(t, err)
	assert.Equal(t, before, *cfg)
}

func TestApplyKDLFile_TopLevelFields(t *testing.T) {
	path := writeKDL(t, `
cache_dir "/var/cache/rx"
large_file_mb 200
sample_size_lines 500000
max_subprocesses 4
no_cache true
`)

	cfg := Default()
	require.NoError(t, applyKDLFile(cfg, path))

	assert.Equal(t, "/var/cache/rx", cfg.CacheDir)
	assert.Equal(t, int64(200), cfg.LargeFileMB)
	assert.Equal(t, 500000, cfg.SampleSizeLines)
	assert.Equal(t, 4, cfg.MaxSubprocesses)
	assert.True(t, cfg.NoCache)
	assert.False(t, cfg.NoIndex)
}

func TestApplyKDLFile_SearchRoots(t *testing.T) {
	path := writeKDL(t, `search_roots "/var/log" "/home/app/logs"`)

	cfg := Default()
	require.NoError(t, applyKDLFile(cfg, path))

	assert.Equal(t, []string{"/var/log", "/home/app/logs"}, cfg.SearchRoots)
}

func TestApplyKDLFile_ChunkAndAnomalyBlocks(t *testing.T) {
	path := writeKDL(t, `
chunk {
    min_chunk_bytes 1048576
    max_chunks_per_file 16
}

anomaly {
    window_size 64
    max_ranges 500
    prescan_enabled false
}
`)

	cfg := Default()
	require.NoError(t, applyKDLFile(cfg, path))

	assert.Equal(t, int64(1048576), cfg.Chunk.MinChunkBytes)
	assert.Equal(t, 16, cfg.Chunk.MaxChunksPerFile)
	assert.Equal(t, 64, cfg.Anomaly.WindowSize)
	assert.Equal(t, 500, cfg.Anomaly.MaxRanges)
	assert.False(t, cfg.Anomaly.PrescanEnabled)
}

func TestApplyKDLFile_PartialOverridePreservesOtherDefaults(t *testing.T) {
	path := writeKDL(t, `max_subprocesses 2`)

	defaults := Default()
	cfg := Default()
	require.NoError(t, applyKDLFile(cfg, path))

	assert.Equal(t, 2, cfg.MaxSubprocesses)
	assert.Equal(t, defaults.LargeFileMB, cfg.LargeFileMB)
	assert.Equal(t, defaults.Chunk, cfg.Chunk)
}
