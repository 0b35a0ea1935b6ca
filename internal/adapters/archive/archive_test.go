package archive_test

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mops/internal/adapters/archive"
)

func tarGz(t *testing.T, files map[string]string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return &buf
}

func zipFile(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestExtractTarGz(t *testing.T) {
	buf := tarGz(t, map[string]string{
		"mops.toml":  "[package]\nname = \"lib\"\n",
		"src/lib.mo": "module {}",
	})

	dest := filepath.Join(t.TempDir(), "lib@1.0.0")
	require.NoError(t, archive.ExtractTarGz(buf, dest, 0))

	assert.Equal(t, "module {}", readFile(t, filepath.Join(dest, "src", "lib.mo")))
	assert.FileExists(t, filepath.Join(dest, "mops.toml"))
}

func TestExtractTarGz_NotGzip(t *testing.T) {
	err := archive.ExtractTarGz(bytes.NewBufferString("plain text"), t.TempDir(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to extract archive")
}

func TestExtractTarGz_TraversalStaysInside(t *testing.T) {
	buf := tarGz(t, map[string]string{"../../evil.mo": "boom"})

	root := t.TempDir()
	dest := filepath.Join(root, "pkg")
	require.NoError(t, archive.ExtractTarGz(buf, dest, 0))

	assert.NoFileExists(t, filepath.Join(root, "evil.mo"))
	assert.FileExists(t, filepath.Join(dest, "evil.mo"))
}

func TestExtractZip_StripsTopLevel(t *testing.T) {
	src := zipFile(t, map[string]string{
		"motoko-base-v0.6.21/":             "",
		"motoko-base-v0.6.21/src/Nat.mo":   "module {}",
		"motoko-base-v0.6.21/vessel.dhall": "{ name = \"base\" }",
	})

	dest := filepath.Join(t.TempDir(), "base#v0.6.21")
	require.NoError(t, archive.ExtractZip(src, dest, 1))

	assert.Equal(t, "module {}", readFile(t, filepath.Join(dest, "src", "Nat.mo")))
	assert.FileExists(t, filepath.Join(dest, "vessel.dhall"))
	assert.NoDirExists(t, filepath.Join(dest, "motoko-base-v0.6.21"))
}

func TestExtractZip_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o600))

	err := archive.ExtractZip(path, filepath.Join(t.TempDir(), "dest"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to extract archive")
}
