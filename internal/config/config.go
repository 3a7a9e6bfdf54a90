// Package config loads rx's configuration: a small struct-of-structs
// defaulted, then optionally overridden by a `.rx.kdl` file, then by
// environment variables (spec.md §6.3). The result is snapshotted once at
// construction; nothing in this package re-reads the environment later.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/standardbeagle/rx/internal/chunker"
)

// ChunkConfig controls the chunk planner (C5).
type ChunkConfig struct {
	MinChunkBytes    int64
	MaxChunksPerFile int
}

// AnomalyConfig controls the anomaly detection pipeline (C8).
type AnomalyConfig struct {
	WindowSize     int
	MaxRanges      int
	PrescanEnabled bool
}

// Config is rx's full runtime configuration.
type Config struct {
	CacheDir        string
	SearchRoots     []string
	LargeFileMB     int64
	SampleSizeLines int
	MaxSubprocesses int
	NoCache         bool
	NoIndex         bool
	Chunk           ChunkConfig
	Anomaly         AnomalyConfig
}

// LargeFileBytes is LargeFileMB converted to bytes, the threshold used
// throughout C4/C6/C7 (spec.md §4.4, §4.6, §4.7).
func (c *Config) LargeFileBytes() int64 {
	return c.LargeFileMB * 1024 * 1024
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "rx")
	}
	return filepath.Join(".", ".rx-cache")
}

// Default returns rx's built-in defaults (spec.md §6.3 "Default" column),
// before any `.rx.kdl` file or environment override is applied.
func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	return &Config{
		CacheDir:        defaultCacheDir(),
		SearchRoots:     []string{cwd},
		LargeFileMB:     50,
		SampleSizeLines: 1_000_000,
		MaxSubprocesses: chunker.CapSubprocesses(max(1, runtime.NumCPU())),
		NoCache:         false,
		NoIndex:         false,
		Chunk: ChunkConfig{
			MinChunkBytes:    4 * 1024 * 1024,
			MaxChunksPerFile: 32,
		},
		Anomaly: AnomalyConfig{
			WindowSize:     32,
			MaxRanges:      10_000,
			PrescanEnabled: true,
		},
	}
}

// Load builds a Config the way rx always does: built-in defaults, then a
// global `~/.rx.kdl` (if present), then a project `.rx.kdl` found under
// rootDir (project overrides global field-by-field), then environment
// overrides. rootDir may be "" to mean the current directory.
func Load(rootDir string) (*Config, error) {
	searchDir := rootDir
	if searchDir == "" {
		searchDir = "."
	}

	cfg := Default()

	if homeDir, err := os.UserHomeDir(); err == nil {
		if err := applyKDLFile(cfg, filepath.Join(homeDir, ".rx.kdl")); err != nil {
			return nil, err
		}
	}

	if err := applyKDLFile(cfg, filepath.Join(searchDir, ".rx.kdl")); err != nil {
		return nil, err
	}

	applyEnv(cfg)

	return cfg, nil
}
