package app

import (
	"net/http"

	"go.trai.ch/mops/internal/adapters/cas"      //nolint:depguard // Wired in app layer
	"go.trai.ch/mops/internal/adapters/git"      //nolint:depguard // Wired in app layer
	"go.trai.ch/mops/internal/adapters/registry" //nolint:depguard // Wired in app layer
	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/mops/internal/core/ports"
	"go.trai.ch/zerr"
)

// Backends are the package sources of one session. They depend on settings
// only known once the project root is.
type Backends struct {
	Cache    ports.PackageCache
	Registry ports.Registry
	Git      ports.GitFetcher
}

// BackendsFactory builds the backends for a project root and its settings.
type BackendsFactory func(root string, settings domain.Settings) (*Backends, error)

// NewBackendsFactory returns the production factory: a content-addressed
// cache under settings.CacheDir and HTTP clients for the registry and git host.
func NewBackendsFactory(hasher ports.TreeHasher, httpClient *http.Client) BackendsFactory {
	return func(root string, settings domain.Settings) (*Backends, error) {
		cache, err := cas.NewStore(settings.CacheDir, hasher)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to open package cache"), "dir", settings.CacheDir)
		}

		return &Backends{
			Cache:    cache,
			Registry: registry.New(settings.RegistryURL, registry.WithHTTPClient(httpClient)),
			Git:      git.New(settings.GitHost, domain.DefaultTmpPath(root), git.WithHTTPClient(httpClient)),
		}, nil
	}
}
