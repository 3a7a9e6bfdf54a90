package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandboxValidate(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.log"), []byte("hi\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))

	sb, err := New([]string{root})
	require.NoError(t, err)

	t.Run("PathInsideRoot", func(t *testing.T) {
		resolved, err := sb.Validate(filepath.Join(root, "a.log"))
		assert.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "a.log"), resolved)
	})

	t.Run("DotDotEscape", func(t *testing.T) {
		_, err := sb.Validate(filepath.Join(root, "..", "etc", "passwd"))
		assert.Error(t, err)
	})

	t.Run("NonExistentButInBoundsParent", func(t *testing.T) {
		resolved, err := sb.Validate(filepath.Join(root, "sub", "new-index.json"))
		assert.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "sub", "new-index.json"), resolved)
	})

	t.Run("RelativePathResolvesAgainstRoot", func(t *testing.T) {
		resolved, err := sb.Validate("a.log")
		assert.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "a.log"), resolved)
	})
}

func TestSandboxSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	secret := filepath.Join(outside, "passwd")
	require.NoError(t, os.WriteFile(secret, []byte("root:x:0:0\n"), 0644))

	link := filepath.Join(root, "link")
	require.NoError(t, os.Symlink(secret, link))

	sb, err := New([]string{root})
	require.NoError(t, err)

	_, err = sb.Validate(link)
	assert.Error(t, err, "a symlink resolving outside the root must be rejected")
}

func TestSandboxMultiRootFirstMatchWins(t *testing.T) {
	// A relative path is interpreted against each root in turn; the first
	// root whose joined candidate resolves in-bounds wins, independent of
	// whether the file actually exists there (spec.md §4.1).
	rootA := t.TempDir()
	rootB := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(rootB, "b.log"), []byte("x\n"), 0644))

	sb, err := New([]string{rootA, rootB})
	require.NoError(t, err)

	resolved, err := sb.Validate("b.log")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rootA, "b.log"), resolved)
}

func TestSandboxExpandDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.log"), []byte("x\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.log.lock"), []byte("x\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "objects", "pack"), []byte("x\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "c.log"), []byte("x\n"), 0644))

	sb, err := New([]string{root})
	require.NoError(t, err)

	files, err := sb.ExpandDirectory(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "a.log"),
		filepath.Join(root, "sub", "c.log"),
	}, files)
}

func TestSandboxDeniedCustomGlobs(t *testing.T) {
	sb, err := New([]string{t.TempDir()})
	require.NoError(t, err)

	sb = sb.WithDenyGlobs([]string{"*.tmp"})
	assert.True(t, sb.Denied("foo.tmp"))
	assert.False(t, sb.Denied("foo.log.lock"), "custom deny globs replace DefaultDenyGlobs entirely")
}
