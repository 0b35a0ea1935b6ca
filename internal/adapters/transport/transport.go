// Package transport builds the HTTP clients and retry policies shared by the
// registry and git adapters.
package transport

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/rs/dnscache"
	"go.trai.ch/zerr"
)

const (
	dnsRefreshInterval = 5 * time.Minute
	clientTimeout      = 5 * time.Minute
	maxRetries         = 4
)

var (
	resolverOnce sync.Once
	resolver     *dnscache.Resolver
)

// sharedResolver returns the process-wide DNS cache, refreshed in the background.
func sharedResolver() *dnscache.Resolver {
	resolverOnce.Do(func() {
		resolver = &dnscache.Resolver{}
		go func() {
			ticker := time.NewTicker(dnsRefreshInterval)
			defer ticker.Stop()
			for range ticker.C {
				resolver.Refresh(true)
			}
		}()
	})
	return resolver
}

// NewClient returns an HTTP client whose dialer resolves hosts through a DNS cache.
func NewClient() *http.Client {
	r := sharedResolver()
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Client{
		Timeout: clientTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, err
				}
				ips, err := r.LookupHost(ctx, host)
				if err != nil {
					return nil, err
				}
				for _, ip := range ips {
					conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
					if err == nil {
						return conn, nil
					}
				}
				return nil, zerr.With(zerr.New("failed to dial any resolved IP"), "host", host)
			},
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// BackOffFactory creates a fresh retry policy for one operation.
type BackOffFactory func() backoff.BackOff

// DefaultBackOff retries with exponential delays starting at 500ms, at most four times.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 2 * time.Minute
	b.Reset()
	return backoff.WithMaxRetries(b, maxRetries)
}

// NoBackOff retries immediately, at most n times.
func NoBackOff(n uint64) BackOffFactory {
	return func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, n)
	}
}

// Retry runs op until it succeeds, returns a permanent error, the policy gives
// up or ctx is done. Errors wrapped with Permanent are returned unwrapped.
func Retry(ctx context.Context, newBackOff BackOffFactory, op func() error) error {
	if newBackOff == nil {
		newBackOff = DefaultBackOff
	}
	err := backoff.Retry(op, backoff.WithContext(newBackOff(), ctx))
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zerr.Wrap(ctxErr, err.Error())
	}
	return err
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
