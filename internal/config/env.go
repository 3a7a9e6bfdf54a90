package config

import (
	"os"
	"strconv"
	"strings"
)

// applyEnv overlays the environment variables from spec.md §6.3 onto cfg.
// This is the last step of Load and runs exactly once; nothing in rx
// re-reads these variables afterward (see Design Note on side-effectful
// reloading).
func applyEnv(cfg *Config) {
	if v, ok := envInt64("RX_LARGE_FILE_MB"); ok {
		cfg.LargeFileMB = v
	}
	if v, ok := envInt("RX_SAMPLE_SIZE_LINES"); ok {
		cfg.SampleSizeLines = v
	}
	if v, ok := os.LookupEnv("RX_CACHE_DIR"); ok && v != "" {
		cfg.CacheDir = v
	}
	if v, ok := os.LookupEnv("RX_SEARCH_ROOTS"); ok && v != "" {
		cfg.SearchRoots = strings.Split(v, string(os.PathListSeparator))
	}
	if v, ok := envBool("RX_NO_CACHE"); ok {
		cfg.NoCache = v
	}
	if v, ok := envBool("RX_NO_INDEX"); ok {
		cfg.NoIndex = v
	}
	if v, ok := envInt("RX_MAX_SUBPROCESSES"); ok {
		cfg.MaxSubprocesses = v
	}
}

func envInt(name string) (int, bool) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envInt64(name string) (int64, bool) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(name string) (bool, bool) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
