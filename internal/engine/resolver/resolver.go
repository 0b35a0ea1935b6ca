// Package resolver walks the dependency graph of a project and picks one
// package per name.
package resolver

import (
	"context"
	"os"
	"strings"

	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/mops/internal/core/ports"
	"go.trai.ch/zerr"
)

// Acquirer materializes packages before their manifests are read.
type Acquirer interface {
	AcquireAll(ctx context.Context, deps []domain.Dependency) error
}

// Request describes one resolver pass.
type Request struct {
	// Root is the absolute project directory.
	Root string
	// Env replaces {MOPS_ENV} in local paths.
	Env string
	// Policy decides what happens with conflicts.
	Policy domain.ConflictPolicy
}

// Resolver computes a Resolution from a project's manifest. Without an
// Acquirer it only reads packages already present on disk.
type Resolver struct {
	manifests ports.ManifestReader
	logger    ports.Logger
	acquirer  Acquirer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithAcquirer makes the resolver fetch missing packages before descending into them.
func WithAcquirer(a Acquirer) Option {
	return func(r *Resolver) {
		r.acquirer = a
	}
}

// New creates a Resolver.
func New(manifests ports.ManifestReader, logger ports.Logger, opts ...Option) *Resolver {
	r := &Resolver{manifests: manifests, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type visitKey struct {
	name    string
	locator string
}

// pass holds the state of one Resolve call.
type pass struct {
	*Resolver
	req       Request
	res       *domain.Resolution
	visited   map[visitKey]bool
	requested map[string][]string
	names     []string
}

// Resolve reads the root manifest and walks every dependency reachable from
// it. Under ConflictError the computed resolution is returned together with
// domain.ErrConflictDetected. Any other failure returns no resolution.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*domain.Resolution, error) {
	root, err := r.manifests.Read(ctx, req.Root)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrManifestNotFound, "no manifest in project root"), "path", req.Root)
	}

	p := &pass{
		Resolver:  r,
		req:       req,
		res:       domain.NewResolution(),
		visited:   make(map[visitKey]bool),
		requested: make(map[string][]string),
	}

	deps := root.All()
	for _, dep := range deps {
		p.consider(dep, true)
	}
	if err := p.expand(ctx, deps, true); err != nil {
		return nil, err
	}

	return p.finalize()
}

// expand processes one dependency list in declaration order, descending into
// each non-local package once per (name, locator).
func (p *pass) expand(ctx context.Context, deps []domain.Dependency, isRoot bool) error {
	if p.acquirer != nil {
		var missing []domain.Dependency
		for _, dep := range deps {
			if dep.Kind() != domain.KindLocal && !p.visited[visitKey{dep.Name, dep.Locator()}] {
				missing = append(missing, dep)
			}
		}
		if len(missing) > 0 {
			if err := p.acquirer.AcquireAll(ctx, missing); err != nil {
				return err
			}
		}
	}

	for _, dep := range deps {
		if !isRoot {
			p.consider(dep, false)
		}
		if dep.Kind() == domain.KindLocal {
			continue
		}

		key := visitKey{dep.Name, dep.Locator()}
		if p.visited[key] {
			continue
		}
		p.visited[key] = true

		dir := domain.LocalDir(p.req.Root, dep, p.req.Env)
		if p.acquirer == nil && !dirExists(dir) {
			p.logger.Debug("skipping " + dep.String() + ": not installed")
			continue
		}

		m, err := p.manifests.Read(ctx, dir)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrUnresolvedPackage.Error()), "package", dep.String())
		}
		if m == nil {
			continue
		}
		if err := p.expand(ctx, m.Dependencies, false); err != nil {
			return err
		}
	}
	return nil
}

// consider records dep as requested and decides whether it replaces the current entry.
func (p *pass) consider(dep domain.Dependency, isRoot bool) {
	p.request(dep)

	candidate := &domain.ResolvedPackage{
		Dependency: dep,
		Dir:        domain.LocalDir(p.req.Root, dep, p.req.Env),
		IsRoot:     isRoot,
	}

	existing, ok := p.res.Get(dep.Name)
	switch {
	case !ok, isRoot:
		// a later root declaration overrides an earlier one
		p.res.Put(candidate)
	case existing.IsRoot:
		// root requests are never displaced
	case higher(existing.Dependency, dep):
		p.res.Put(candidate)
	}
}

// higher reports whether candidate should replace existing.
func higher(existing, candidate domain.Dependency) bool {
	eg, okE := existing.Git()
	cg, okC := candidate.Git()
	if okE && okC {
		return domain.CompareGitRefs(eg.Ref, cg.Ref) == -1
	}
	return domain.CompareVersions(existing.Version(), candidate.Version()) == -1
}

func (p *pass) request(dep domain.Dependency) {
	if dep.Kind() == domain.KindLocal {
		return
	}
	locator := dep.Locator()
	for _, seen := range p.requested[dep.Name] {
		if seen == locator {
			return
		}
	}
	if _, ok := p.requested[dep.Name]; !ok {
		p.names = append(p.names, dep.Name)
	}
	p.requested[dep.Name] = append(p.requested[dep.Name], locator)
}

func (p *pass) finalize() (*domain.Resolution, error) {
	var conflicts []domain.Conflict
	for _, name := range p.names {
		if requested := p.requested[name]; len(requested) > 1 {
			conflicts = append(conflicts, domain.Conflict{Name: name, Requested: requested})
		}
	}
	p.res.Conflicts = conflicts

	if len(conflicts) == 0 {
		return p.res, nil
	}

	switch p.req.Policy {
	case domain.ConflictIgnore:
	case domain.ConflictError:
		err := zerr.Wrap(domain.ErrConflictDetected, conflictMessage(conflicts[0]))
		return p.res, zerr.With(err, "conflicts", len(conflicts))
	default:
		for _, c := range conflicts {
			p.logger.Warn(conflictMessage(c))
		}
	}
	return p.res, nil
}

func conflictMessage(c domain.Conflict) string {
	return `conflicting package versions "` + c.Name + `" - ` + strings.Join(c.Requested, ", ")
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
