// Package legacy reads the vessel manifest format: a vessel.dhall listing
// package names joined against a package-set.dhall of git repositories.
package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/mops/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.ManifestReader = (*Reader)(nil)

// vesselFile is the decoded vessel.dhall.
type vesselFile struct {
	Dependencies []string `json:"dependencies"`
}

// packageSetEntry is one element of the decoded package-set.dhall.
type packageSetEntry struct {
	Name    string `json:"name"`
	Repo    string `json:"repo"`
	Version string `json:"version"`
}

// sidecar is the vessel.json cache written next to the dhall files.
type sidecar struct {
	Dependencies    []sidecarDependency `json:"dependencies"`
	DevDependencies []sidecarDependency `json:"dev-dependencies"`
}

type sidecarDependency struct {
	Name    string `json:"name"`
	Repo    string `json:"repo,omitempty"`
	Version string `json:"version,omitempty"`
	Path    string `json:"path,omitempty"`
}

// Reader implements ports.ManifestReader for vessel packages. A directory
// whose files are missing or cannot be decoded has no manifest.
type Reader struct {
	decoder Decoder
	logger  ports.Logger
}

// NewReader creates a Reader.
func NewReader(decoder Decoder, logger ports.Logger) *Reader {
	return &Reader{decoder: decoder, logger: logger}
}

// Read returns the manifest of dir, preferring the vessel.json sidecar and
// otherwise decoding the dhall pair, after which the sidecar is written.
func (r *Reader) Read(ctx context.Context, dir string) (*domain.Manifest, error) {
	sidecarPath := filepath.Join(dir, domain.VesselSidecarFileName)
	if data, err := os.ReadFile(sidecarPath); err == nil { //nolint:gosec // Path is derived from a package directory
		var sc sidecar
		if err := json.Unmarshal(data, &sc); err != nil {
			r.logger.Debug("ignoring unreadable " + sidecarPath + ": " + err.Error())
			return nil, nil
		}
		return r.manifest(sidecarPath, sc), nil
	}

	sc, ok := r.decode(ctx, dir)
	if !ok {
		return nil, nil
	}

	if data, err := json.Marshal(sc); err == nil {
		if err := os.WriteFile(sidecarPath, data, domain.FilePerm); err != nil { //nolint:gosec // Sidecar is not sensitive
			r.logger.Debug("failed to write " + sidecarPath + ": " + err.Error())
		}
	}
	return r.manifest(sidecarPath, sc), nil
}

func (r *Reader) decode(ctx context.Context, dir string) (sidecar, bool) {
	vesselPath := filepath.Join(dir, domain.VesselFileName)
	setPath := filepath.Join(dir, domain.PackageSetFileName)

	var vessel vesselFile
	var set []packageSetEntry

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.decodeFile(gctx, vesselPath, &vessel)
	})
	g.Go(func() error {
		return r.decodeFile(gctx, setPath, &set)
	})
	if err := g.Wait(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug("no legacy manifest in " + dir + ": " + err.Error())
		}
		return sidecar{}, false
	}

	repos := make(map[string]string, len(set))
	for _, e := range set {
		src, err := domain.ParseGitLocator(e.Repo)
		if err != nil {
			r.logger.Debug("skipping package set entry " + e.Name + ": " + err.Error())
			continue
		}
		repos[e.Name] = "https://" + domain.DefaultGitHost + "/" + src.Org + "/" + src.Name + "#" + e.Version
	}

	sc := sidecar{
		Dependencies:    make([]sidecarDependency, 0, len(vessel.Dependencies)),
		DevDependencies: []sidecarDependency{},
	}
	for _, name := range vessel.Dependencies {
		repo, ok := repos[name]
		if !ok {
			r.logger.Warn("package " + name + " is not in the package set of " + dir)
			continue
		}
		sc.Dependencies = append(sc.Dependencies, sidecarDependency{Name: name, Repo: repo})
	}
	return sc, true
}

func (r *Reader) decodeFile(ctx context.Context, path string, v any) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	data, err := r.decoder.Decode(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestParseFailed.Error()), "path", path)
	}
	return nil
}

func (r *Reader) manifest(path string, sc sidecar) *domain.Manifest {
	return &domain.Manifest{
		Dependencies:    r.dependencies(path, sc.Dependencies),
		DevDependencies: r.dependencies(path, sc.DevDependencies),
	}
}

func (r *Reader) dependencies(path string, entries []sidecarDependency) []domain.Dependency {
	out := make([]domain.Dependency, 0, len(entries))
	for _, e := range entries {
		value := e.Version
		switch {
		case e.Path != "":
			value = e.Path
		case e.Repo != "":
			value = e.Repo
		}

		dep, err := domain.ParseManifestEntry(e.Name, value)
		if err != nil {
			r.logger.Warn("skipping dependency " + e.Name + " in " + path + ": " + err.Error())
			continue
		}
		out = append(out, dep)
	}
	return out
}
