package ports

import (
	"context"

	"go.trai.ch/mops/internal/core/domain"
)

// GitFetcher downloads a git ref as a source tree.
//
//go:generate go run go.uber.org/mock/mockgen -source=git.go -destination=mocks/mock_git.go -package=mocks
type GitFetcher interface {
	// Fetch materializes the tree of src into destDir.
	// On failure destDir does not exist.
	Fetch(ctx context.Context, src domain.GitSource, destDir string) error
}
