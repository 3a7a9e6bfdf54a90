package config

import (
	"fmt"
	"os"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// applyKDLFile overlays path onto cfg if the file exists. A missing file is
// not an error — rx runs fine on built-in defaults alone.
func applyKDLFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "cache_dir":
			if s, ok := firstStringArg(n); ok {
				cfg.CacheDir = s
			}
		case "search_roots":
			if roots := collectStringArgs(n); len(roots) > 0 {
				cfg.SearchRoots = roots
			}
		case "large_file_mb":
			if v, ok := firstIntArg(n); ok {
				cfg.LargeFileMB = int64(v)
			}
		case "sample_size_lines":
			if v, ok := firstIntArg(n); ok {
				cfg.SampleSizeLines = v
			}
		case "max_subprocesses":
			if v, ok := firstIntArg(n); ok {
				cfg.MaxSubprocesses = v
			}
		case "no_cache":
			if b, ok := firstBoolArg(n); ok {
				cfg.NoCache = b
			}
		case "no_index":
			if b, ok := firstBoolArg(n); ok {
				cfg.NoIndex = b
			}
		case "chunk":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "min_chunk_bytes":
					if v, ok := firstIntArg(cn); ok {
						cfg.Chunk.MinChunkBytes = int64(v)
					}
				case "max_chunks_per_file":
					if v, ok := firstIntArg(cn); ok {
						cfg.Chunk.MaxChunksPerFile = v
					}
				}
			}
		case "anomaly":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "window_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Anomaly.WindowSize = v
					}
				case "max_ranges":
					if v, ok := firstIntArg(cn); ok {
						cfg.Anomaly.MaxRanges = v
					}
				case "prescan_enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Anomaly.PrescanEnabled = b
					}
				}
			}
		}
	}

	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

// collectStringArgs reads a node's inline arguments, or, when there are
// none, its children's node names (KDL block-list form).
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
