// Package net provides the HTTP transport for ubuntu-fetcher.
package net

import (
	"context"
	"fmt"
	"io"
	stdnet "net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/monolythium/ubuntu-fetcher/internal/core"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// HTTPFetcher implements the core.Fetcher interface using HTTP.
type HTTPFetcher struct {
	Client  *http.Client
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewHTTPFetcher creates a new HTTPFetcher. The timeout bounds connecting,
// the TLS handshake, waiting for response headers and each wait for body
// data. The transfer as a whole is not capped.
func NewHTTPFetcher(timeout time.Duration, logger *zap.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = core.DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dialer := &stdnet.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	return &HTTPFetcher{
		Client:  &http.Client{Transport: transport},
		Timeout: timeout,
		Logger:  logger,
	}
}

// Get issues a GET with the fixed identifying headers. The caller owns the
// response body; a body read that waits longer than the timeout fails with
// a timeout error.
func (f *HTTPFetcher) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, &core.FetchError{
			Kind: core.KindUnexpected,
			Err:  eris.Wrap(err, "create request"),
		}
	}
	req.Header.Set("User-Agent", core.UserAgent)
	req.Header.Set("Accept", core.AcceptHeader)

	f.Logger.Debug("sending request",
		zap.String("url", rawURL),
		zap.Duration("timeout", f.Timeout),
	)

	start := time.Now()
	resp, err := f.Client.Do(req)
	if err != nil {
		cancel()
		return nil, eris.Wrapf(err, "failed to fetch %s", rawURL)
	}
	if f.Timeout > 0 {
		resp.Body = newIdleBody(resp.Body, f.Timeout, cancel)
	} else {
		resp.Body = &idleBody{body: resp.Body, cancel: cancel}
	}

	f.Logger.Debug("response received",
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.String("content_type", resp.Header.Get("Content-Type")),
		zap.Int64("content_length", resp.ContentLength),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

// idleTimeoutError reports a body read that saw no data within the timeout.
type idleTimeoutError struct {
	timeout time.Duration
}

func (e *idleTimeoutError) Error() string {
	return fmt.Sprintf("no response data for %s", e.timeout)
}

func (e *idleTimeoutError) Timeout() bool   { return true }
func (e *idleTimeoutError) Temporary() bool { return true }
func (e *idleTimeoutError) Unwrap() error   { return context.DeadlineExceeded }

// idleBody cancels the request when a single Read blocks longer than
// timeout. The deadline restarts on every Read.
type idleBody struct {
	body    io.ReadCloser
	timeout time.Duration
	cancel  context.CancelFunc
	timer   *time.Timer
	expired atomic.Bool
}

func newIdleBody(body io.ReadCloser, timeout time.Duration, cancel context.CancelFunc) *idleBody {
	b := &idleBody{body: body, timeout: timeout, cancel: cancel}
	b.timer = time.AfterFunc(timeout, func() {
		b.expired.Store(true)
		cancel()
	})
	b.timer.Stop()
	return b
}

func (b *idleBody) Read(p []byte) (int, error) {
	if b.timer == nil {
		return b.body.Read(p)
	}
	if b.expired.Load() {
		return 0, &idleTimeoutError{timeout: b.timeout}
	}
	b.timer.Reset(b.timeout)
	n, err := b.body.Read(p)
	b.timer.Stop()
	if err != nil && b.expired.Load() {
		return n, &idleTimeoutError{timeout: b.timeout}
	}
	return n, err
}

func (b *idleBody) Close() error {
	if b.timer != nil {
		b.timer.Stop()
	}
	err := b.body.Close()
	b.cancel()
	return err
}
