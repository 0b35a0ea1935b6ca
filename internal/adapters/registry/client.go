// Package registry implements the registry gateway client.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
	"go.trai.ch/mops/internal/adapters/transport"
	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/mops/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	breakerThreshold = 5
	userAgent        = "mops-cli"
)

var _ ports.Registry = (*Client)(nil)

// Client talks to the registry gateway over HTTP+JSON.
//
// Transport failures, 429 and 5xx answers are retried with exponential backoff
// and counted by a per-host circuit breaker. Explicit {"err": ...} results are
// returned as domain.ErrRemoteRejected and never retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	newBackOff transport.BackOffFactory

	mu       sync.RWMutex
	breakers map[string]*circuit.Breaker
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBackOff sets the retry policy.
func WithBackOff(f transport.BackOffFactory) Option {
	return func(cl *Client) {
		cl.newBackOff = f
	}
}

// New creates a Client for the gateway at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		newBackOff: transport.DefaultBackOff,
		breakers:   make(map[string]*circuit.Breaker),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = transport.NewClient()
	}
	return c
}

// result is the {"ok": ...} / {"err": "..."} envelope of every JSON answer.
type result[T any] struct {
	Ok  *T      `json:"ok"`
	Err *string `json:"err"`
}

// HighestVersion returns the newest published version of a package.
func (c *Client) HighestVersion(ctx context.Context, name string) (string, error) {
	var version string
	if err := c.call(ctx, http.MethodGet, c.endpoint("packages", name, "highest-version"), nil, &version); err != nil {
		return "", zerr.With(err, "package", name)
	}
	if version == "" {
		return "", zerr.With(zerr.Wrap(domain.ErrRemoteRejected, "empty version"), "package", name)
	}
	return version, nil
}

// DownloadArchive streams the gzip tarball of a published version.
func (c *Client) DownloadArchive(ctx context.Context, name, version string) (io.ReadCloser, error) {
	u := c.endpoint("packages", name, version, "archive")

	var body io.ReadCloser
	err := c.withBreaker(ctx, u, func() error {
		resp, err := c.do(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusOK {
			body = resp.Body
			return nil
		}
		return statusError(resp, u)
	})
	if err != nil {
		return nil, zerr.With(zerr.With(err, "package", name), "version", version)
	}
	return body, nil
}

// StartPublish opens a publish session and returns its id.
func (c *Client) StartPublish(ctx context.Context, req domain.PublishRequest) (string, error) {
	var id string
	if err := c.call(ctx, http.MethodPost, c.endpoint("publish"), req, &id); err != nil {
		return "", zerr.With(err, "package", req.Package.Name)
	}
	return id, nil
}

type startFileRequest struct {
	Path       string `json:"path"`
	ChunkCount int    `json:"chunkCount"`
	Chunk      []byte `json:"chunk"`
}

// StartFileUpload registers a file and sends its first chunk.
func (c *Client) StartFileUpload(ctx context.Context, publishID, path string, chunkCount int, firstChunk []byte) (string, error) {
	var id string
	body := startFileRequest{Path: path, ChunkCount: chunkCount, Chunk: firstChunk}
	if err := c.call(ctx, http.MethodPost, c.endpoint("publish", publishID, "files"), body, &id); err != nil {
		return "", zerr.With(err, "file", path)
	}
	return id, nil
}

type chunkRequest struct {
	Chunk []byte `json:"chunk"`
}

// UploadFileChunk sends chunk number index of a registered file.
func (c *Client) UploadFileChunk(ctx context.Context, publishID, fileID string, index int, chunk []byte) error {
	u := c.endpoint("publish", publishID, "files", fileID, "chunks", strconv.Itoa(index))
	var ignored json.RawMessage
	if err := c.call(ctx, http.MethodPost, u, chunkRequest{Chunk: chunk}, &ignored); err != nil {
		return zerr.With(zerr.With(err, "file_id", fileID), "chunk", index)
	}
	return nil
}

// FinishPublish commits a publish session.
func (c *Client) FinishPublish(ctx context.Context, publishID string) error {
	var ignored json.RawMessage
	if err := c.call(ctx, http.MethodPost, c.endpoint("publish", publishID, "finish"), nil, &ignored); err != nil {
		return zerr.With(err, "publish_id", publishID)
	}
	return nil
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL + "/v1/" + strings.Join(escaped, "/")
}

// call performs a JSON request and decodes the ok value of the result envelope into out.
func (c *Client) call(ctx context.Context, method, u string, in any, out any) error {
	var payload []byte
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return zerr.Wrap(err, "failed to encode request")
		}
		payload = data
	}

	var rejected error
	err := c.withBreaker(ctx, u, func() error {
		resp, err := c.do(ctx, method, u, payload)
		if err != nil {
			return err
		}
		defer resp.Body.Close() //nolint:errcheck // Body fully consumed below

		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return statusError(resp, u)
		}

		var env result[json.RawMessage]
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			if resp.StatusCode >= http.StatusBadRequest {
				return transport.Permanent(statusError(resp, u))
			}
			return transport.Permanent(zerr.With(zerr.Wrap(err, "failed to decode registry response"), "url", u))
		}
		if env.Err != nil {
			rejected = zerr.With(zerr.Wrap(domain.ErrRemoteRejected, *env.Err), "url", u)
			return nil
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return transport.Permanent(statusError(resp, u))
		}
		if env.Ok == nil || out == nil {
			return nil
		}
		if err := json.Unmarshal(*env.Ok, out); err != nil {
			return transport.Permanent(zerr.With(zerr.Wrap(err, "failed to decode registry response"), "url", u))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return rejected
}

func (c *Client) do(ctx context.Context, method, u string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, transport.Permanent(zerr.With(zerr.Wrap(err, "failed to create request"), "url", u))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFetchFailed.Error()), "url", u)
	}
	return resp, nil
}

// withBreaker retries fn under the host's circuit breaker. Permanent errors
// do not count against the breaker.
func (c *Client) withBreaker(ctx context.Context, u string, fn func() error) error {
	breaker := c.breaker(u)
	return transport.Retry(ctx, c.newBackOff, func() error {
		if !breaker.Ready() {
			return transport.Permanent(zerr.With(zerr.Wrap(domain.ErrFetchFailed, "circuit breaker open"), "url", u))
		}

		var permanent error
		err := breaker.Call(func() error {
			err := fn()
			if p, ok := err.(*backoff.PermanentError); ok {
				permanent = p
				return nil
			}
			return err
		}, 0)
		if permanent != nil {
			return permanent
		}
		return err
	})
}

func (c *Client) breaker(u string) *circuit.Breaker {
	host := u
	if parsed, err := url.Parse(u); err == nil && parsed.Host != "" {
		host = parsed.Host
	}

	c.mu.RLock()
	b, ok := c.breakers[host]
	c.mu.RUnlock()
	if ok {
		return b
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.breakers[host]; ok {
		return b
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	b = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(breakerThreshold),
	})
	c.breakers[host] = b
	return b
}

// statusError drains resp and describes a non-success status. 404 and other
// client errors are permanent.
func statusError(resp *http.Response, u string) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	_ = resp.Body.Close()

	err := zerr.With(zerr.Wrap(domain.ErrFetchFailed, "unexpected status "+resp.Status), "url", u)
	if len(snippet) > 0 {
		err = zerr.With(err, "body", strings.TrimSpace(string(snippet)))
	}
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return err
	}
	return transport.Permanent(err)
}
