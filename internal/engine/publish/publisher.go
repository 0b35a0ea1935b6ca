package publish

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/mops/internal/core/ports"
	"go.trai.ch/mops/internal/engine/pool"
	"go.trai.ch/zerr"
)

const (
	// ChunkSize is the largest piece of a file sent in one registry call.
	ChunkSize = 1536 * 1024
	// DefaultUploads bounds the number of files uploaded concurrently.
	DefaultUploads = 8
)

// Result summarizes a finished publish.
type Result struct {
	Name    string
	Version string
	Files   []string
}

// Publisher uploads a package to the registry.
type Publisher struct {
	registry  ports.Registry
	telemetry ports.Telemetry
	logger    ports.Logger
	uploads   int
	chunkSize int
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithUploads sets the number of concurrent file uploads.
func WithUploads(n int) Option {
	return func(p *Publisher) { p.uploads = n }
}

// WithChunkSize overrides ChunkSize.
func WithChunkSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.chunkSize = n
		}
	}
}

// New creates a Publisher.
func New(registry ports.Registry, telemetry ports.Telemetry, logger ports.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		registry:  registry,
		telemetry: telemetry,
		logger:    logger,
		uploads:   DefaultUploads,
		chunkSize: ChunkSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish validates the package rooted at root described by m and uploads it.
// The publish session is only committed when every file was uploaded.
func (p *Publisher) Publish(ctx context.Context, root string, m *domain.Manifest) (*Result, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}

	files, err := SelectFiles(os.DirFS(root), m.Package.Files)
	if err != nil {
		return nil, err
	}

	publishID, err := p.registry.StartPublish(ctx, domain.NewPublishRequest(m))
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrPublishFailed.Error())
	}
	p.logger.Debug("publish session " + publishID + " started with " + strconv.Itoa(len(files)) + " files")

	if err := p.uploadAll(ctx, root, publishID, files); err != nil {
		return nil, err
	}

	if err := p.registry.FinishPublish(ctx, publishID); err != nil {
		return nil, zerr.Wrap(err, domain.ErrPublishFailed.Error())
	}

	return &Result{Name: m.Package.Name, Version: m.Package.Version, Files: files}, nil
}

func (p *Publisher) uploadAll(ctx context.Context, root, publishID string, files []string) error {
	workers := pool.New(p.uploads)

	var (
		once     sync.Once
		firstErr error
	)
	fail := func(file string, err error) {
		once.Do(func() {
			firstErr = zerr.With(zerr.Wrap(err, domain.ErrPublishFailed.Error()), "file", file)
			workers.Stop()
		})
	}

	for _, file := range files {
		workers.Submit(file, func() error {
			if err := p.upload(ctx, root, publishID, file); err != nil {
				fail(file, err)
				return err
			}
			return nil
		})
	}

	_ = workers.Wait()
	return firstErr
}

func (p *Publisher) upload(ctx context.Context, root, publishID, file string) (err error) {
	ctx, vertex := p.telemetry.Record(ctx, "upload "+file)
	defer func() { vertex.Complete(err) }()

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(file)))
	if err != nil {
		return zerr.Wrap(err, "failed to read file")
	}

	parts := split(data, p.chunkSize)
	fileID, err := p.registry.StartFileUpload(ctx, publishID, file, len(parts), parts[0])
	if err != nil {
		return err
	}
	for i := 1; i < len(parts); i++ {
		if err := p.registry.UploadFileChunk(ctx, publishID, fileID, i, parts[i]); err != nil {
			return zerr.With(err, "chunk", i)
		}
	}
	return nil
}

// split cuts data into pieces of at most size bytes. Empty data yields a
// single empty piece.
func split(data []byte, size int) [][]byte {
	if len(data) == 0 {
		return [][]byte{{}}
	}
	parts := make([][]byte, 0, (len(data)+size-1)/size)
	for len(data) > size {
		parts = append(parts, data[:size])
		data = data[size:]
	}
	return append(parts, data)
}
