// Package security implements the path sandbox (spec.md C1): every
// externally supplied path is validated against an ordered list of
// allowed roots before the core will touch it.
package security

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/rx/internal/rxerrors"
)

// Sandbox holds the process-wide list of resolved allowed roots, configured
// once at startup (spec.md §4.1). Only the multi-root form is implemented;
// a single-root caller supplies a list of length 1 (see Design Note on
// duplicated path_security modules).
type Sandbox struct {
	roots     []string
	denyGlobs []string
}

// DefaultDenyGlobs excludes lock files, sockets, and VCS metadata from
// directory expansion — files a regex scan never has a reason to open.
var DefaultDenyGlobs = []string{"*.lock", "*.sock", ".git/**"}

// New resolves each configured root (symlinks + "..") and returns a
// Sandbox. It fails on the first root whose absolute path cannot be
// computed; a root whose symlinks cannot be resolved is kept in cleaned
// form.
func New(roots []string) (*Sandbox, error) {
	if len(roots) == 0 {
		return nil, rxerrors.New(rxerrors.PathOutsideSandbox, "new_sandbox", errEmptyRoots)
	}

	resolved := make([]string, 0, len(roots))
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, rxerrors.NewPathError("new_sandbox", r, err)
		}
		real, err := resolveExisting(abs)
		if err != nil {
			return nil, rxerrors.NewPathError("new_sandbox", r, err)
		}
		resolved = append(resolved, filepath.Clean(real))
	}
	return &Sandbox{roots: resolved, denyGlobs: DefaultDenyGlobs}, nil
}

// WithDenyGlobs returns a copy of s using globs (doublestar syntax,
// matched against both the base name and the path relative to the
// expanded directory's root) instead of DefaultDenyGlobs.
func (s *Sandbox) WithDenyGlobs(globs []string) *Sandbox {
	cp := *s
	cp.denyGlobs = globs
	return &cp
}

// Denied reports whether name (a base name or a slash-separated relative
// path) matches one of the sandbox's deny globs.
func (s *Sandbox) Denied(name string) bool {
	base := filepath.Base(name)
	rel := filepath.ToSlash(name)
	for _, g := range s.denyGlobs {
		if ok, _ := doublestar.Match(g, base); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}

// ExpandDirectory walks a validated, in-sandbox directory and returns
// every regular file beneath it whose path relative to dir does not
// match one of the sandbox's deny globs (spec.md C1, "glob-based
// allow/deny lists layered over sandbox roots").
func (s *Sandbox) ExpandDirectory(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}
		if d.IsDir() {
			if rel != "." && s.Denied(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.Denied(rel) {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, rxerrors.NewPathError("expand_directory", dir, err)
	}
	return out, nil
}

var errEmptyRoots = os.ErrInvalid

// Roots returns a copy of the sandbox's resolved root list.
func (s *Sandbox) Roots() []string {
	out := make([]string, len(s.roots))
	copy(out, s.roots)
	return out
}

// Validate resolves path against the sandbox's roots and returns the
// resolved absolute path if it lies within (or equals) one of them.
//
// If path is relative, it is interpreted against each root in turn. For
// each candidate, symlinks and ".." are resolved before the containment
// check, so a symlink that escapes the root is rejected even though its
// unresolved name looks safe (spec.md S6). Non-existent final path
// components are allowed — only their parent directory must resolve
// in-bounds — so a cache path we are about to create validates correctly.
func (s *Sandbox) Validate(path string) (string, error) {
	if path == "" {
		return "", rxerrors.NewPathError("validate", path, os.ErrInvalid)
	}

	var candidates []string
	if filepath.IsAbs(path) {
		candidates = []string{path}
	} else {
		candidates = make([]string, 0, len(s.roots))
		for _, root := range s.roots {
			candidates = append(candidates, filepath.Join(root, path))
		}
	}

	for i, candidate := range candidates {
		resolved, err := resolveForValidation(candidate)
		if err != nil {
			continue
		}
		roots := s.roots
		if !filepath.IsAbs(path) {
			roots = s.rootsForCandidate(i)
		}
		for _, root := range roots {
			if isDescendantOf(resolved, root) {
				return resolved, nil
			}
		}
	}

	return "", rxerrors.NewPathError("validate", path, errOutsideSandbox)
}

var errOutsideSandbox = os.ErrPermission

// rootsForCandidate returns the root(s) a given candidate should be
// checked against: when path was relative, candidate i was built from
// root i, so only that root applies; absolute paths are checked against
// every configured root.
func (s *Sandbox) rootsForCandidate(i int) []string {
	if i < len(s.roots) {
		return []string{s.roots[i]}
	}
	return s.roots
}

// resolveForValidation resolves symlinks and ".." for a path that may not
// exist yet. If the full path doesn't exist, it walks up to the nearest
// existing ancestor, resolves that, and rejoins the missing suffix.
func resolveForValidation(path string) (string, error) {
	clean := filepath.Clean(path)

	if real, err := filepath.EvalSymlinks(clean); err == nil {
		return real, nil
	}

	// Fall back to the nearest existing ancestor so a not-yet-created
	// cache file still validates against its parent directory.
	dir := filepath.Dir(clean)
	missing := []string{filepath.Base(clean)}
	for {
		if real, err := filepath.EvalSymlinks(dir); err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				real = filepath.Join(real, missing[i])
			}
			return real, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		missing = append(missing, filepath.Base(dir))
		dir = parent
	}
}

// resolveExisting resolves symlinks for a path expected to already exist
// (used when registering search roots at startup).
func resolveExisting(path string) (string, error) {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real, nil
	}
	return filepath.Clean(path), nil
}

// isDescendantOf reports whether path is root or a descendant of root.
func isDescendantOf(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if path == root {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
