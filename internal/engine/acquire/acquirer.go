// Package acquire materializes packages on disk from the package cache, the
// registry or git, running downloads on a shared pool.
package acquire

import (
	"context"
	"errors"
	"os"
	"sync"

	"go.trai.ch/mops/internal/adapters/archive"
	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/mops/internal/core/ports"
	"go.trai.ch/mops/internal/engine/pool"
	"go.trai.ch/zerr"
)

// Deps bundles the collaborators of an Acquirer.
type Deps struct {
	Cache     ports.PackageCache
	Registry  ports.Registry
	Git       ports.GitFetcher
	Manifests ports.ManifestReader
	Telemetry ports.Telemetry
	Logger    ports.Logger
}

// entry is the single-flight record of one cache key.
type entry struct {
	dep      domain.Dependency
	future   *pool.Future
	children []string
}

// Acquirer materializes packages for one resolver pass. Each cache key is
// acquired at most once per Acquirer.
type Acquirer struct {
	root string
	pool *pool.Pool
	deps Deps

	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an Acquirer placing packages under root and running downloads on p.
func New(root string, p *pool.Pool, deps Deps) *Acquirer {
	return &Acquirer{
		root:    root,
		pool:    p,
		deps:    deps,
		entries: make(map[string]*entry),
	}
}

// AcquireAll materializes deps concurrently and waits for them and for the git
// packages they pull in. Local dependencies are skipped. The first failure in
// declaration order is returned, naming the package.
func (a *Acquirer) AcquireAll(ctx context.Context, deps []domain.Dependency) error {
	keys := make([]string, 0, len(deps))
	for _, dep := range deps {
		if key := a.submit(ctx, dep); key != "" {
			keys = append(keys, key)
		}
	}

	for _, key := range keys {
		if err := a.wait(key); err != nil {
			e := a.lookup(key)
			return zerr.With(zerr.Wrap(err, domain.ErrUnresolvedPackage.Error()), "package", e.dep.String())
		}
	}
	return nil
}

// submit schedules dep unless its key is already known and returns the key.
func (a *Acquirer) submit(ctx context.Context, dep domain.Dependency) string {
	key := dep.CacheKey()
	if key == "" {
		return ""
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.entries[key]; ok {
		return key
	}

	e := &entry{dep: dep}
	a.entries[key] = e
	e.future = a.pool.Submit(dep.String(), func() error {
		return a.acquire(ctx, e)
	})
	return key
}

func (a *Acquirer) lookup(key string) *entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.entries[key]
}

// wait blocks on key and, breadth first, on every package it pulled in.
func (a *Acquirer) wait(key string) error {
	root := a.lookup(key)
	seen := map[string]bool{key: true}
	queue := []string{key}

	for len(queue) > 0 {
		current := a.lookup(queue[0])
		queue = queue[1:]

		if err := current.future.Wait(); err != nil {
			if current == root {
				return err
			}
			return zerr.With(zerr.Wrap(err, "dependency failed"), "dependency", current.dep.String())
		}

		a.mu.Lock()
		children := current.children
		a.mu.Unlock()

		for _, child := range children {
			if !seen[child] {
				seen[child] = true
				queue = append(queue, child)
			}
		}
	}
	return nil
}

func (a *Acquirer) acquire(ctx context.Context, e *entry) (err error) {
	ctx, vertex := a.deps.Telemetry.Record(ctx, "acquire "+e.dep.String())
	defer func() {
		vertex.Complete(err)
	}()

	dest := domain.LocalDir(a.root, e.dep, "")
	cached, err := a.materialize(ctx, e.dep, dest)
	if err != nil {
		return err
	}
	if cached {
		vertex.Cached()
	}

	if _, ok := e.dep.Git(); ok {
		a.pullGitDependencies(ctx, e, dest)
	}
	return nil
}

// materialize makes dest hold the package, reporting whether no download was needed.
func (a *Acquirer) materialize(ctx context.Context, dep domain.Dependency, dest string) (bool, error) {
	if dirExists(dest) {
		return true, nil
	}

	key := dep.CacheKey()
	if a.deps.Cache.Exists(key) {
		err := a.deps.Cache.Materialize(key, dest)
		if err == nil {
			a.deps.Logger.Debug("materialized " + dep.String() + " from cache")
			return true, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			return false, zerr.With(err, "package", dep.String())
		}
	}

	if err := a.download(ctx, dep, dest); err != nil {
		return false, err
	}

	if err := a.deps.Cache.Populate(key, dest); err != nil {
		a.deps.Logger.Warn("failed to cache " + dep.String() + ": " + err.Error())
	}
	return false, nil
}

func (a *Acquirer) download(ctx context.Context, dep domain.Dependency, dest string) error {
	switch s := dep.Source.(type) {
	case domain.GitSource:
		a.deps.Logger.Debug("downloading " + s.Repo)
		if err := a.deps.Git.Fetch(ctx, s, dest); err != nil {
			return zerr.With(err, "package", dep.String())
		}
		return nil

	case domain.RegistrySource:
		a.deps.Logger.Debug("downloading " + dep.String())
		rc, err := a.deps.Registry.DownloadArchive(ctx, dep.Name, s.Version)
		if err != nil {
			return zerr.With(err, "package", dep.String())
		}
		defer rc.Close() //nolint:errcheck // Archive stream is read to the end or abandoned

		if err := archive.ExtractTarGz(rc, dest, 0); err != nil {
			_ = os.RemoveAll(dest)
			return zerr.With(err, "package", dep.String())
		}
		return nil

	default:
		return nil
	}
}

// pullGitDependencies schedules the git dependencies declared by a git
// package without waiting for them.
func (a *Acquirer) pullGitDependencies(ctx context.Context, e *entry, dir string) {
	m, err := a.deps.Manifests.Read(ctx, dir)
	if err != nil {
		a.deps.Logger.Debug("cannot read manifest of " + e.dep.String() + ": " + err.Error())
		return
	}
	if m == nil {
		return
	}

	var children []string
	for _, child := range m.Dependencies {
		if child.Kind() != domain.KindGit {
			continue
		}
		children = append(children, a.submit(ctx, child))
	}

	a.mu.Lock()
	e.children = children
	a.mu.Unlock()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
