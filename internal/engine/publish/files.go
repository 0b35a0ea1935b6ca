package publish

import (
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/zerr"
)

// DefaultFilePatterns selects sources when a package lists no files.
var DefaultFilePatterns = []string{"**/*.mo"}

var (
	alwaysIncluded = []string{domain.ManifestFileName, "README.md", "LICENSE", "NOTICE"}
	excluded       = []string{".mops/**", "test/**", "tests/**", "**/*.test.mo", "**/*.Test.mo"}
	requiredFiles  = []string{domain.ManifestFileName, "README.md"}
	allowedExts    = []string{".mo", ".did", ".md", ".toml"}
)

// SelectFiles returns the slash-separated paths in fsys matched by patterns
// plus the always included files, minus excluded paths, sorted.
func SelectFiles(fsys fs.FS, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultFilePatterns
	}

	seen := make(map[string]bool)
	var files []string
	for _, pattern := range slices.Concat(patterns, alwaysIncluded) {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrPublishValidation, err.Error()), "pattern", pattern)
		}
		for _, m := range matches {
			if seen[m] || isExcluded(m) {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	slices.Sort(files)

	for _, req := range requiredFiles {
		if !seen[req] {
			return nil, zerr.With(zerr.Wrap(domain.ErrPublishValidation, "required file missing"), "file", req)
		}
	}
	for _, f := range files {
		if !allowedFile(f) {
			return nil, zerr.With(zerr.Wrap(domain.ErrPublishValidation, "file has unsupported extension"), "file", f)
		}
	}
	return files, nil
}

func isExcluded(name string) bool {
	for _, pattern := range excluded {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func allowedFile(name string) bool {
	return slices.Contains(allowedExts, path.Ext(name)) || strings.HasSuffix(strings.ToLower(name), "license")
}
