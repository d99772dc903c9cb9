// Package fetch is the single GET-with-retry primitive shared by the listing
// scanner, the detail fetcher and the image relay.
package fetch

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"shopscout/shopscout/utils/logging"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"go.uber.org/zap"
)

const (
	DefaultMaxRetries   = 3
	DefaultTimeout      = 10 * time.Second
	DefaultRetryDelay   = 1 * time.Second
	DefaultMaxBodyBytes = 10 << 20
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ErrFetchExhausted matches every *FetchExhaustedError via errors.Is.
var ErrFetchExhausted = errors.New("fetch exhausted")

// ErrBodyTooLarge is returned when a body exceeds MaxBodyBytes. It is not
// retried.
var ErrBodyTooLarge = errors.New("response body too large")

// FetchExhaustedError is returned once every attempt for a URL has failed.
type FetchExhaustedError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchExhaustedError) Error() string {
	return fmt.Sprintf("failed to fetch %s after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchExhaustedError) Unwrap() error { return e.Err }

func (e *FetchExhaustedError) Is(target error) bool { return target == ErrFetchExhausted }

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string { return fmt.Sprintf("http status %d", e.StatusCode) }

type Options struct {
	MaxRetries   int
	Timeout      time.Duration
	RetryDelay   time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if strings.TrimSpace(o.UserAgent) == "" {
		o.UserAgent = DefaultUserAgent
	}
	return o
}

// DefaultOptions is the shared policy: 3 attempts, 10s each, 1s apart.
func DefaultOptions() Options {
	return Options{
		MaxRetries:   DefaultMaxRetries,
		Timeout:      DefaultTimeout,
		RetryDelay:   DefaultRetryDelay,
		MaxBodyBytes: DefaultMaxBodyBytes,
		UserAgent:    DefaultUserAgent,
	}
}

// Response is a fully read, decoded response body.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) ContentType() string { return r.Header.Get("Content-Type") }

type Client struct {
	client *http.Client
	opts   Options
}

func NewClient(opts Options) *Client {
	opts = opts.withDefaults()
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		client: &http.Client{Transport: transport},
		opts:   opts,
	}
}

func (c *Client) Options() Options { return c.opts }

// Get performs up to MaxRetries attempts, each bounded by Timeout, waiting
// RetryDelay between failed attempts.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		attempts = attempt
		logging.AppLogger.Debug("fetching",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
		)
		resp, err := c.attempt(ctx, rawURL)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		logging.ErrorLogger.Warn("request failed",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if errors.Is(err, ErrBodyTooLarge) || attempt == c.opts.MaxRetries {
			break
		}
		if sleep(ctx, c.opts.RetryDelay) != nil {
			break
		}
	}
	return nil, &FetchExhaustedError{URL: rawURL, Attempts: attempts, Err: lastErr}
}

func (c *Client) attempt(ctx context.Context, rawURL string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(io.LimitReader(body, c.opts.MaxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.opts.MaxBodyBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.opts.MaxBodyBytes)
	}

	header := resp.Header.Clone()
	header.Del("Content-Encoding")
	header.Del("Content-Length")
	return &Response{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       data,
	}, nil
}

func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "br":
		return io.NopCloser(brotli.NewReader(resp.Body)), nil
	default:
		return io.NopCloser(resp.Body), nil
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
