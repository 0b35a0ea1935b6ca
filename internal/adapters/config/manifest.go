// Package config reads project manifests, tool settings and lockfiles.
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/mops/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	sectionPackage         = "package"
	sectionDependencies    = "dependencies"
	sectionDevDependencies = "dev-dependencies"
)

var _ ports.ManifestReader = (*TOMLReader)(nil)

// manifestFile mirrors mops.toml. Dependency tables are decoded as maps and
// re-ordered from the decoder metadata.
type manifestFile struct {
	Package         *domain.PackageMeta `toml:"package"`
	Dependencies    map[string]string   `toml:"dependencies"`
	DevDependencies map[string]string   `toml:"dev-dependencies"`
}

// TOMLReader reads native mops.toml manifests.
type TOMLReader struct {
	logger ports.Logger
}

// NewTOMLReader creates a TOMLReader. Entries that cannot be classified are
// reported to logger and left out of the manifest.
func NewTOMLReader(logger ports.Logger) *TOMLReader {
	return &TOMLReader{logger: logger}
}

// Read decodes dir/mops.toml. It returns nil and no error when the file does not exist.
func (r *TOMLReader) Read(_ context.Context, dir string) (*domain.Manifest, error) {
	path := filepath.Join(dir, domain.ManifestFileName)
	data, err := os.ReadFile(path) //nolint:gosec // Manifest path is derived from a package directory
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestParseFailed.Error()), "path", path)
	}
	return r.Parse(path, data)
}

// Parse decodes manifest data read from path. Dependency order follows the document.
func (r *TOMLReader) Parse(path string, data []byte) (*domain.Manifest, error) {
	var file manifestFile
	md, err := toml.Decode(string(data), &file)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrManifestParseFailed, err.Error()), "path", path)
	}

	m := &domain.Manifest{Package: file.Package}
	for _, key := range md.Keys() {
		if len(key) != 2 {
			continue
		}
		switch key[0] {
		case sectionDependencies:
			m.Dependencies = r.appendDependency(m.Dependencies, path, key[1], file.Dependencies[key[1]])
		case sectionDevDependencies:
			m.DevDependencies = r.appendDependency(m.DevDependencies, path, key[1], file.DevDependencies[key[1]])
		}
	}

	for _, key := range md.Undecoded() {
		m.UnknownKeys = append(m.UnknownKeys, key.String())
	}
	return m, nil
}

func (r *TOMLReader) appendDependency(deps []domain.Dependency, path, name, value string) []domain.Dependency {
	dep, err := domain.ParseManifestEntry(name, value)
	if err != nil {
		r.logger.Warn("skipping dependency " + name + " in " + path + ": " + err.Error())
		return deps
	}
	return append(deps, dep)
}

var _ ports.ManifestReader = (*Composite)(nil)

// Composite reads the native manifest of a directory and falls back to a
// secondary reader, the legacy vessel format, when there is none.
type Composite struct {
	native   ports.ManifestReader
	fallback ports.ManifestReader
}

// NewComposite creates a Composite. fallback may be nil.
func NewComposite(native, fallback ports.ManifestReader) *Composite {
	return &Composite{native: native, fallback: fallback}
}

// Read returns the first manifest found.
func (c *Composite) Read(ctx context.Context, dir string) (*domain.Manifest, error) {
	m, err := c.native.Read(ctx, dir)
	if err != nil || m != nil || c.fallback == nil {
		return m, err
	}
	return c.fallback.Read(ctx, dir)
}
