package ports

import (
	"context"

	"go.trai.ch/mops/internal/core/domain"
)

// ManifestReader reads the dependency declaration of a package directory.
//
//go:generate mockgen -source=manifest.go -destination=mocks/mock_manifest.go -package=mocks
type ManifestReader interface {
	// Read returns the manifest of dir, or nil and no error when dir has none.
	Read(ctx context.Context, dir string) (*domain.Manifest, error)
}
