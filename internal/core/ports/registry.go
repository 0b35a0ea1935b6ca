// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/mops/internal/core/domain"
)

// Registry is the remote package registry.
//
//go:generate go run go.uber.org/mock/mockgen -source=registry.go -destination=mocks/mock_registry.go -package=mocks
type Registry interface {
	// HighestVersion returns the newest published version of a package.
	HighestVersion(ctx context.Context, name string) (string, error)

	// DownloadArchive streams the gzip tarball of a published version.
	// The caller must close the returned reader.
	DownloadArchive(ctx context.Context, name, version string) (io.ReadCloser, error)

	// StartPublish opens a publish session and returns its id.
	StartPublish(ctx context.Context, req domain.PublishRequest) (string, error)

	// StartFileUpload registers a file of chunkCount chunks, sending the first one, and returns its id.
	StartFileUpload(ctx context.Context, publishID, path string, chunkCount int, firstChunk []byte) (string, error)

	// UploadFileChunk sends chunk number index of a registered file.
	UploadFileChunk(ctx context.Context, publishID, fileID string, index int, chunk []byte) error

	// FinishPublish commits a publish session.
	FinishPublish(ctx context.Context, publishID string) error
}
