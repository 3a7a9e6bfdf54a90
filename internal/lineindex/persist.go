package lineindex

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

const (
	compactAnomalyThreshold   = 1000
	compactCheckpointThreshold = 10000
)

// CachePath returns the on-disk path for absPath's UnifiedFileIndex under
// cacheDir: <safe-basename>_<sha256-of-abs-path, first 16 hex chars>.json
// (spec.md §4.4 "Persistence"). The basename is restricted to
// [A-Za-z0-9._-] so arbitrary path components can't escape cacheDir.
func CachePath(cacheDir, absPath string) string {
	sum := sha256.Sum256([]byte(absPath))
	digest := hex.EncodeToString(sum[:])[:16]
	return filepath.Join(cacheDir, safeBasename(absPath)+"_"+digest+".json")
}

func safeBasename(absPath string) string {
	base := filepath.Base(absPath)
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

// Load reads and decodes the UnifiedFileIndex cached at path. A missing
// file is reported via os.IsNotExist, not wrapped.
func Load(path string) (*UnifiedFileIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var u UnifiedFileIndex
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Save writes u to path, creating path's parent directory if needed. Large
// records (more than 1,000 anomalies or 10,000 checkpoints) are written
// compact; smaller ones are pretty-printed for human inspection
// (spec.md §4.4 "Persistence").
func Save(path string, u *UnifiedFileIndex) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	compact := len(u.Anomalies) > compactAnomalyThreshold || len(u.Index.Checkpoints) > compactCheckpointThreshold

	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(u)
	} else {
		data, err = json.MarshalIndent(u, "", "  ")
	}
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
