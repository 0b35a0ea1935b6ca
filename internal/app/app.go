// Package app implements the application layer for mops.
package app

import (
	"context"
	"path/filepath"
	"strconv"

	"go.trai.ch/mops/internal/adapters/config" //nolint:depguard // Lockfile helpers
	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/mops/internal/core/ports"
	"go.trai.ch/mops/internal/engine/acquire"
	"go.trai.ch/mops/internal/engine/pool"
	"go.trai.ch/mops/internal/engine/publish"
	"go.trai.ch/mops/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// Options are the flags shared by every command.
type Options struct {
	// Root is the project directory. Empty means the working directory.
	Root string
	// Verbose enables debug logging.
	Verbose bool
	// Conflicts overrides the configured conflict policy when set.
	Conflicts string
}

// App represents the main application logic.
type App struct {
	settings    ports.SettingsLoader
	manifests   ports.ManifestReader
	hasher      ports.TreeHasher
	telemetry   ports.Telemetry
	logger      ports.Logger
	newBackends BackendsFactory
}

// New creates a new App instance.
func New(
	settings ports.SettingsLoader,
	manifests ports.ManifestReader,
	hasher ports.TreeHasher,
	telemetry ports.Telemetry,
	logger ports.Logger,
	newBackends BackendsFactory,
) *App {
	return &App{
		settings:    settings,
		manifests:   manifests,
		hasher:      hasher,
		telemetry:   telemetry,
		logger:      logger,
		newBackends: newBackends,
	}
}

// session is the state of one command run.
type session struct {
	root     string
	settings domain.Settings
	policy   domain.ConflictPolicy
}

type verboseSetter interface {
	SetVerbose(verbose bool)
}

type levelSetter interface {
	SetLevel(level string) error
}

func (a *App) open(opts Options) (*session, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve project root"), "root", opts.Root)
	}

	settings, err := a.settings.Load(root)
	if err != nil {
		return nil, err
	}

	if l, ok := a.logger.(levelSetter); ok {
		if err := l.SetLevel(settings.LogLevel); err != nil {
			return nil, err
		}
	}
	if opts.Verbose {
		if v, ok := a.logger.(verboseSetter); ok {
			v.SetVerbose(true)
		}
	}

	policy := settings.Conflicts
	if opts.Conflicts != "" {
		policy, err = domain.ParseConflictPolicy(opts.Conflicts)
		if err != nil {
			return nil, err
		}
	}

	return &session{root: root, settings: settings, policy: policy}, nil
}

func (s *session) request() resolver.Request {
	return resolver.Request{Root: s.root, Env: s.settings.Env, Policy: s.policy}
}

func (a *App) acquirer(s *session, b *Backends) *acquire.Acquirer {
	return acquire.New(s.root, pool.New(s.settings.Concurrency), acquire.Deps{
		Cache:     b.Cache,
		Registry:  b.Registry,
		Git:       b.Git,
		Manifests: a.manifests,
		Telemetry: a.telemetry,
		Logger:    a.logger,
	})
}

// Sources resolves the already installed packages of the project and returns
// the compiler package flags, one per package.
func (a *App) Sources(ctx context.Context, opts Options) ([]domain.SourceEntry, error) {
	s, err := a.open(opts)
	if err != nil {
		return nil, err
	}

	r := resolver.New(a.manifests, a.logger)
	res, err := r.Resolve(ctx, s.request())
	if err != nil {
		return nil, err
	}
	return r.Sources(ctx, res, s.root), nil
}

// Install acquires every package of the project and records them in mops.lock.
func (a *App) Install(ctx context.Context, opts Options) (*domain.Lockfile, error) {
	s, err := a.open(opts)
	if err != nil {
		return nil, err
	}
	b, err := a.newBackends(s.root, s.settings)
	if err != nil {
		return nil, err
	}

	r := resolver.New(a.manifests, a.logger, resolver.WithAcquirer(a.acquirer(s, b)))
	res, err := r.Resolve(ctx, s.request())
	if err != nil {
		return nil, err
	}

	lf := &domain.Lockfile{
		Version:  domain.LockfileVersion,
		Packages: make(map[string]domain.LockedPackage, len(res.Order)),
	}
	for _, pkg := range res.Walk() {
		var digest string
		if pkg.Dependency.Kind() != domain.KindLocal {
			digest, err = a.hasher.HashTree(pkg.Dir)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, "failed to hash package"), "package", pkg.Dependency.String())
			}
		}
		lf.Packages[pkg.Dependency.Name] = config.NewLockedPackage(pkg.Dependency, digest)
	}

	if err := config.WriteLockfile(s.root, lf); err != nil {
		return nil, err
	}
	a.logger.Info("installed " + pluralize(len(res.Order), "package"))
	return lf, nil
}

// Add classifies spec, pins registry packages to their newest version and
// acquires the package. The manifest itself is left untouched.
func (a *App) Add(ctx context.Context, spec string, opts Options) (domain.Dependency, error) {
	s, err := a.open(opts)
	if err != nil {
		return domain.Dependency{}, err
	}
	b, err := a.newBackends(s.root, s.settings)
	if err != nil {
		return domain.Dependency{}, err
	}

	dep, err := resolver.NewClassifier(b.Registry).Classify(ctx, spec)
	if err != nil {
		return domain.Dependency{}, err
	}

	if dep.Kind() != domain.KindLocal {
		if err := a.acquirer(s, b).AcquireAll(ctx, []domain.Dependency{dep}); err != nil {
			return domain.Dependency{}, err
		}
	}
	return dep, nil
}

// Publish validates the project package and uploads it to the registry.
func (a *App) Publish(ctx context.Context, opts Options) (*publish.Result, error) {
	s, err := a.open(opts)
	if err != nil {
		return nil, err
	}
	b, err := a.newBackends(s.root, s.settings)
	if err != nil {
		return nil, err
	}

	m, err := a.manifests.Read(ctx, s.root)
	if err != nil {
		return nil, err
	}

	p := publish.New(b.Registry, a.telemetry, a.logger, publish.WithUploads(s.settings.Concurrency))
	res, err := p.Publish(ctx, s.root, m)
	if err != nil {
		return nil, err
	}
	a.logger.Info("published " + res.Name + "@" + res.Version)
	return res, nil
}

// CleanCache removes every entry of the package cache.
func (a *App) CleanCache(opts Options) error {
	s, err := a.open(opts)
	if err != nil {
		return err
	}
	b, err := a.newBackends(s.root, s.settings)
	if err != nil {
		return err
	}
	if err := b.Cache.Clean(); err != nil {
		return err
	}
	a.logger.Info("cleaned " + b.Cache.Dir())
	return nil
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
