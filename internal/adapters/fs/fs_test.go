package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mops/internal/adapters/fs"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestWalker_WalkFiles(t *testing.T) {
	// tmp/
	//   .git/config
	//   ignored/file
	//   src/lib.mo
	//   README.md
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".git", "config"), "git config")
	writeFile(t, filepath.Join(tmpDir, "ignored", "file"), "ignored content")
	writeFile(t, filepath.Join(tmpDir, "src", "lib.mo"), "module {}")
	writeFile(t, filepath.Join(tmpDir, "README.md"), "# Readme")

	walker := fs.NewWalker()

	var files []string
	for path := range walker.WalkFiles(tmpDir, []string{"ignored"}) {
		rel, err := filepath.Rel(tmpDir, path)
		require.NoError(t, err)
		files = append(files, filepath.ToSlash(rel))
	}

	assert.Equal(t, []string{"README.md", "src/lib.mo"}, files)
}

func TestWalker_WalkFiles_StopsEarly(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.mo"), "a")
	writeFile(t, filepath.Join(tmpDir, "b.mo"), "b")

	count := 0
	for range fs.NewWalker().WalkFiles(tmpDir, nil) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestHasher_ComputeFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.mo")
	writeFile(t, path, "hello world")

	hasher := fs.NewHasher(fs.NewWalker())

	hash1, err := hasher.ComputeFileHash(path)
	require.NoError(t, err)
	assert.NotZero(t, hash1)

	hash2, err := hasher.ComputeFileHash(path)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2, "expected deterministic hash")
}

func TestHasher_HashTree(t *testing.T) {
	hasher := fs.NewHasher(fs.NewWalker())

	a := t.TempDir()
	writeFile(t, filepath.Join(a, "src", "lib.mo"), "module {}")
	writeFile(t, filepath.Join(a, "mops.toml"), "[package]")

	b := t.TempDir()
	writeFile(t, filepath.Join(b, "src", "lib.mo"), "module {}")
	writeFile(t, filepath.Join(b, "mops.toml"), "[package]")

	hashA, err := hasher.HashTree(a)
	require.NoError(t, err)
	hashB, err := hasher.HashTree(b)
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB, "location must not affect the digest")
	assert.Len(t, hashA, 16)

	writeFile(t, filepath.Join(b, "src", "lib.mo"), "module { public let x = 1 }")
	hashB2, err := hasher.HashTree(b)
	require.NoError(t, err)
	assert.NotEqual(t, hashA, hashB2)

	require.NoError(t, os.Rename(filepath.Join(a, "src", "lib.mo"), filepath.Join(a, "src", "Lib.mo")))
	hashA2, err := hasher.HashTree(a)
	require.NoError(t, err)
	assert.NotEqual(t, hashA, hashA2, "renames must change the digest")
}

func TestHasher_HashTree_Missing(t *testing.T) {
	hasher := fs.NewHasher(fs.NewWalker())
	_, err := hasher.HashTree(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to hash directory")
}

func TestCopyDir(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "src", "lib.mo"), "module {}")
	writeFile(t, filepath.Join(src, "README.md"), "# Readme")
	require.NoError(t, os.Chmod(filepath.Join(src, "README.md"), 0o640))
	require.NoError(t, os.Symlink("README.md", filepath.Join(src, "README")))

	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, fs.CopyDir(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "src", "lib.mo"))
	require.NoError(t, err)
	assert.Equal(t, "module {}", string(data))

	info, err := os.Stat(filepath.Join(dst, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	target, err := os.Readlink(filepath.Join(dst, "README"))
	require.NoError(t, err)
	assert.Equal(t, "README.md", target)
}

func TestCopyDir_Errors(t *testing.T) {
	src := t.TempDir()
	file := filepath.Join(src, "file")
	writeFile(t, file, "x")

	err := fs.CopyDir(file, filepath.Join(t.TempDir(), "dst"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source is not a directory")

	err = fs.CopyDir(src, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "destination already exists")
}

func TestRenameWithFallback(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	writeFile(t, filepath.Join(src, "lib.mo"), "module {}")

	dst := filepath.Join(base, "dst")
	require.NoError(t, fs.RenameWithFallback(src, dst))

	assert.NoDirExists(t, src)
	assert.FileExists(t, filepath.Join(dst, "lib.mo"))
}
