// Package readiness polls a service endpoint until it answers.
package readiness

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

// Options configures a Prober.
type Options struct {
	URL            string
	Interval       time.Duration
	Timeout        time.Duration
	RequestTimeout time.Duration
	Hint           string
}

// Prober issues GET requests on a fixed interval until the endpoint is
// ready or the ceiling is reached.
type Prober struct {
	opts   Options
	client *retryablehttp.Client
	log    *logger.Logger
	now    func() time.Time
}

// New returns a Prober.
func New(opts Options, log *logger.Logger) *Prober {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.CheckRetry = func(_ context.Context, _ *http.Response, _ error) (bool, error) {
		return false, nil
	}
	client.Logger = nil
	// Redirects are followed; the final response is classified.
	client.HTTPClient = &http.Client{Timeout: opts.RequestTimeout}

	return &Prober{opts: opts, client: client, log: log, now: time.Now}
}

// Ready classifies a status code. 403 means the server is up and enforcing
// authentication, which is the expected state of a secured Jenkins, so it
// counts as ready.
func Ready(status int) bool {
	return (status >= 200 && status < 300) || status == http.StatusForbidden
}

// Wait polls until ready. A timeout returns a *errors.ReadinessError along
// with the partial result; transport errors and other statuses are retried.
func (p *Prober) Wait(ctx context.Context) (model.ReadinessResult, error) {
	start := p.now()
	result := model.ReadinessResult{}

	ticker := backoff.WithContext(backoff.NewConstantBackOff(p.opts.Interval), ctx)
	for {
		result.Attempts++
		status, err := p.probeOnce(ctx)
		result.Elapsed = p.now().Sub(start)
		if err == nil {
			result.HTTPStatus = status
			if Ready(status) {
				result.Ready = true
				p.log.Infof("service ready: HTTP %d after %s", status, result.Elapsed.Round(time.Millisecond))
				return result, nil
			}
			p.log.Infof("HTTP %d, waiting (%s elapsed)", status, result.Elapsed.Round(time.Second))
		} else {
			p.log.Infof("not ready yet, waiting (%s elapsed)", result.Elapsed.Round(time.Second))
		}

		wait := ticker.NextBackOff()
		if wait == backoff.Stop {
			return result, ctx.Err()
		}
		if result.Elapsed+wait > p.opts.Timeout {
			return result, &pkgerrors.ReadinessError{
				URL:        p.opts.URL,
				Elapsed:    result.Elapsed.Round(time.Millisecond).String(),
				LastStatus: result.HTTPStatus,
				Hint:       p.opts.Hint,
			}
		}
		if !sleepWithContext(ctx, wait) {
			return result, ctx.Err()
		}
	}
}

func (p *Prober) probeOnce(ctx context.Context) (int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.opts.RequestTimeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(reqCtx, http.MethodGet, p.opts.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, nil
}

func sleepWithContext(ctx context.Context, wait time.Duration) bool {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
