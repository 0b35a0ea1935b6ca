package resolver

import (
	"context"

	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/mops/internal/core/ports"
	"go.trai.ch/zerr"
)

// Classifier turns user input into fully pinned dependencies.
type Classifier struct {
	registry ports.Registry
}

// NewClassifier creates a Classifier backed by registry.
func NewClassifier(registry ports.Registry) *Classifier {
	return &Classifier{registry: registry}
}

// Classify parses spec and pins a missing registry version to the highest published one.
func (c *Classifier) Classify(ctx context.Context, spec string) (domain.Dependency, error) {
	dep, err := domain.ParseSpec(spec)
	if err != nil {
		return domain.Dependency{}, err
	}
	return c.Complete(ctx, dep)
}

// Complete pins a registry dependency without a version. Other dependencies
// are returned unchanged.
func (c *Classifier) Complete(ctx context.Context, dep domain.Dependency) (domain.Dependency, error) {
	src, ok := dep.Source.(domain.RegistrySource)
	if !ok || src.Version != "" {
		return dep, nil
	}

	version, err := c.registry.HighestVersion(ctx, dep.Name)
	if err != nil {
		return domain.Dependency{}, zerr.With(err, "package", dep.Name)
	}
	if version == "" {
		return domain.Dependency{}, zerr.With(zerr.Wrap(domain.ErrInvalidDependency, "package has no published version"), "package", dep.Name)
	}

	dep.Source = domain.RegistrySource{Version: version}
	return dep, nil
}
