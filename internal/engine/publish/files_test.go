package publish_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/mops/internal/engine/publish"
)

func file(s string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(s)} }

func TestSelectFiles_Defaults(t *testing.T) {
	fsys := fstest.MapFS{
		"mops.toml":               file("[package]"),
		"README.md":               file("# lib"),
		"LICENSE":                 file("MIT"),
		"src/lib.mo":              file("module {}"),
		"src/nested/util.mo":      file("module {}"),
		"src/lib.test.mo":         file("test"),
		"test/lib.mo":             file("test"),
		".mops/base@1.0.0/lib.mo": file("dep"),
		"notes.txt":               file("ignored"),
	}

	files, err := publish.SelectFiles(fsys, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"LICENSE", "README.md", "mops.toml", "src/lib.mo", "src/nested/util.mo"}, files)
}

func TestSelectFiles_CustomPatterns(t *testing.T) {
	fsys := fstest.MapFS{
		"mops.toml":    file(""),
		"README.md":    file(""),
		"src/lib.mo":   file(""),
		"src/lib.did":  file(""),
		"extra/old.mo": file(""),
	}

	files, err := publish.SelectFiles(fsys, []string{"src/**"})
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "mops.toml", "src/lib.did", "src/lib.mo"}, files)
}

func TestSelectFiles_MissingReadme(t *testing.T) {
	fsys := fstest.MapFS{
		"mops.toml":  file(""),
		"src/lib.mo": file(""),
	}

	_, err := publish.SelectFiles(fsys, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPublishValidation)
	assert.Contains(t, err.Error(), "required file missing")
}

func TestSelectFiles_UnsupportedExtension(t *testing.T) {
	fsys := fstest.MapFS{
		"mops.toml":   file(""),
		"README.md":   file(""),
		"bin/tool.sh": file(""),
	}

	_, err := publish.SelectFiles(fsys, []string{"bin/*"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported extension")
}
