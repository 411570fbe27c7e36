// Package fetch downloads remote artifacts (signing keys, packages,
// manifests) with bounded retries.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/fsutil"
)

const defaultMaxBytes int64 = 64 << 20

// Options tunes a Fetcher. Zero values pick defaults.
type Options struct {
	Timeout        time.Duration
	MaxBytes       int64
	MaxAttempts    uint64
	InitialBackoff time.Duration
}

// Fetcher performs HTTP GETs with exponential backoff on transport errors
// and server errors. Client errors fail immediately.
type Fetcher struct {
	client   *retryablehttp.Client
	opts     Options
	maxBytes int64
}

// New returns a Fetcher.
func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.CheckRetry = func(_ context.Context, _ *http.Response, _ error) (bool, error) {
		return false, nil
	}
	client.Logger = nil
	client.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &Fetcher{client: client, opts: opts, maxBytes: opts.MaxBytes}
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %s", e.URL, e.Status)
}

// Get returns the body of url.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = f.opts.InitialBackoff
	policy.MaxElapsedTime = 0

	var body []byte
	operation := func() error {
		data, err := f.getOnce(ctx, url)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError {
				return backoff.Permanent(err)
			}
			return err
		}
		body = data
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(policy, f.opts.MaxAttempts-1), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) getOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return readWithLimit(resp.Body, f.maxBytes)
}

// Download stores the body of url at dest.
func (f *Fetcher) Download(ctx context.Context, url, dest string, perm os.FileMode) error {
	data, err := f.Get(ctx, url)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(dest, data, perm)
}

func readWithLimit(r io.Reader, maxBytes int64) ([]byte, error) {
	limited := io.LimitReader(r, maxBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, backoff.Permanent(fmt.Errorf("body exceeds %d bytes", maxBytes))
	}
	if len(body) == 0 {
		return nil, backoff.Permanent(errors.New("body is empty"))
	}
	return body, nil
}
