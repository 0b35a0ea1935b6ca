// Package git downloads git refs as zip archives from the hosting service.
package git

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/mops/internal/adapters/archive"
	"go.trai.ch/mops/internal/adapters/transport"
	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/mops/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultMaxAge is the oldest archive response accepted, judged by its Age header.
const DefaultMaxAge = time.Hour

var _ ports.GitFetcher = (*Fetcher)(nil)

// Fetcher implements ports.GitFetcher with the host's archive endpoint:
// GET <base>/<org>/<repo>/archive/<ref>.zip.
type Fetcher struct {
	baseURL    string
	tmpDir     string
	maxAge     time.Duration
	httpClient *http.Client
	newBackOff transport.BackOffFactory
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithBackOff sets the retry policy.
func WithBackOff(b transport.BackOffFactory) Option {
	return func(f *Fetcher) {
		f.newBackOff = b
	}
}

// WithMaxAge sets the oldest acceptable response age.
func WithMaxAge(d time.Duration) Option {
	return func(f *Fetcher) {
		f.maxAge = d
	}
}

// New creates a Fetcher for host that stages downloads in tmpDir. host is
// either a bare host name such as "github.com" or a base URL.
func New(host, tmpDir string, opts ...Option) *Fetcher {
	base := strings.TrimRight(host, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}

	f := &Fetcher{
		baseURL:    base,
		tmpDir:     tmpDir,
		maxAge:     DefaultMaxAge,
		newBackOff: transport.DefaultBackOff,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.httpClient == nil {
		f.httpClient = transport.NewClient()
	}
	return f
}

// ArchiveURL returns the download URL of a git source.
func (f *Fetcher) ArchiveURL(src domain.GitSource) string {
	return f.baseURL + "/" + src.Org + "/" + src.Name + "/archive/" + src.Ref + ".zip"
}

// StagingPath returns where the archive of src is downloaded before extraction.
// Repositories of the same name under different owners stage separately.
func (f *Fetcher) StagingPath(src domain.GitSource) string {
	return filepath.Join(f.tmpDir, src.Org+"_"+src.Name+"@"+strings.ReplaceAll(src.Ref, "/", "_")+".zip")
}

// Fetch downloads the archive of src and unpacks it into destDir with the
// archive's top-level directory stripped. The staged zip is always removed and
// destDir is removed when anything fails.
func (f *Fetcher) Fetch(ctx context.Context, src domain.GitSource, destDir string) (err error) {
	if err := os.MkdirAll(f.tmpDir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFetchFailed.Error()), "path", f.tmpDir)
	}

	zipPath := f.StagingPath(src)
	defer os.Remove(zipPath) //nolint:errcheck // Best effort cleanup of staged archive

	defer func() {
		if err != nil {
			_ = os.RemoveAll(destDir)
		}
	}()

	u := f.ArchiveURL(src)
	err = transport.Retry(ctx, f.newBackOff, func() error {
		return f.download(ctx, u, zipPath)
	})
	if err != nil {
		return zerr.With(zerr.With(err, "repo", src.Repo), "url", u)
	}

	if err := archive.ExtractZip(zipPath, destDir, 1); err != nil {
		return zerr.With(err, "repo", src.Repo)
	}
	return nil
}

func (f *Fetcher) download(ctx context.Context, u, zipPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return transport.Permanent(zerr.Wrap(err, "failed to create request"))
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return zerr.Wrap(err, domain.ErrFetchFailed.Error())
	}
	defer resp.Body.Close() //nolint:errcheck // Body is drained by the copy below

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= http.StatusInternalServerError, resp.StatusCode == http.StatusTooManyRequests:
		return zerr.Wrap(domain.ErrFetchFailed, "unexpected status "+resp.Status)
	default:
		return transport.Permanent(zerr.Wrap(domain.ErrFetchFailed, "unexpected status "+resp.Status))
	}

	if age := resp.Header.Get("Age"); age != "" {
		seconds, err := strconv.Atoi(age)
		if err == nil && time.Duration(seconds)*time.Second > f.maxAge {
			return zerr.With(zerr.Wrap(domain.ErrStaleResponse, "archive response too old"), "age", seconds)
		}
	}

	out, err := os.Create(zipPath) //nolint:gosec // Path is built from the staging directory
	if err != nil {
		return transport.Permanent(zerr.With(zerr.Wrap(err, domain.ErrFetchFailed.Error()), "path", zipPath))
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return zerr.Wrap(err, domain.ErrFetchFailed.Error())
	}
	if err := out.Close(); err != nil {
		return transport.Permanent(zerr.With(zerr.Wrap(err, domain.ErrFetchFailed.Error()), "path", zipPath))
	}
	return nil
}
