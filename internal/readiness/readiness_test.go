package readiness

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

func fastOptions(url string) Options {
	return Options{
		URL:            url,
		Interval:       10 * time.Millisecond,
		Timeout:        200 * time.Millisecond,
		RequestTimeout: 100 * time.Millisecond,
		Hint:           "journalctl -u jenkins -n 50",
	}
}

func statusServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(calls.Add(1))
		idx := n - 1
		if idx >= len(statuses) {
			idx = len(statuses) - 1
		}
		w.WriteHeader(statuses[idx])
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestReadyClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, Ready(http.StatusOK))
	assert.True(t, Ready(http.StatusNoContent))
	assert.True(t, Ready(http.StatusForbidden), "auth enforced means the service is up")
	assert.False(t, Ready(http.StatusUnauthorized))
	assert.False(t, Ready(http.StatusServiceUnavailable))
	assert.False(t, Ready(http.StatusInternalServerError))
}

func redirectServer(t *testing.T, final int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(final)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestWaitFollowsRedirects(t *testing.T) {
	t.Parallel()

	for _, final := range []int{http.StatusOK, http.StatusForbidden} {
		srv := redirectServer(t, final)
		res, err := New(fastOptions(srv.URL), logger.Nop()).Wait(context.Background())
		require.NoError(t, err, "redirect to %d", final)
		assert.True(t, res.Ready)
		assert.Equal(t, final, res.HTTPStatus)
		assert.Equal(t, 1, res.Attempts)
	}
}

func TestWaitRedirectToUnavailableTimesOut(t *testing.T) {
	t.Parallel()

	srv := redirectServer(t, http.StatusServiceUnavailable)
	_, err := New(fastOptions(srv.URL), logger.Nop()).Wait(context.Background())
	var readinessErr *pkgerrors.ReadinessError
	require.ErrorAs(t, err, &readinessErr)
	assert.Equal(t, http.StatusServiceUnavailable, readinessErr.LastStatus)
}

func TestWaitReadyOn200(t *testing.T) {
	t.Parallel()

	srv, calls := statusServer(t, http.StatusOK)
	res, err := New(fastOptions(srv.URL), logger.Nop()).Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Ready)
	assert.Equal(t, http.StatusOK, res.HTTPStatus)
	assert.Equal(t, 1, res.Attempts)
	assert.EqualValues(t, 1, calls.Load())
}

func TestWaitReadyOn403(t *testing.T) {
	t.Parallel()

	srv, _ := statusServer(t, http.StatusForbidden)
	res, err := New(fastOptions(srv.URL), logger.Nop()).Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Ready)
	assert.Equal(t, http.StatusForbidden, res.HTTPStatus)
}

func TestWaitRetriesUntilReady(t *testing.T) {
	t.Parallel()

	srv, calls := statusServer(t, http.StatusServiceUnavailable, http.StatusInternalServerError, http.StatusForbidden)
	res, err := New(fastOptions(srv.URL), logger.Nop()).Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Ready)
	assert.Equal(t, 3, res.Attempts)
	assert.EqualValues(t, 3, calls.Load())
}

func TestWaitTimesOutOn500(t *testing.T) {
	t.Parallel()

	srv, calls := statusServer(t, http.StatusInternalServerError)
	res, err := New(fastOptions(srv.URL), logger.Nop()).Wait(context.Background())
	require.Error(t, err)

	var readinessErr *pkgerrors.ReadinessError
	require.ErrorAs(t, err, &readinessErr)
	assert.Equal(t, http.StatusInternalServerError, readinessErr.LastStatus)
	assert.Equal(t, "journalctl -u jenkins -n 50", readinessErr.Hint)
	assert.False(t, res.Ready)
	assert.Greater(t, calls.Load(), int32(1), "non-ready statuses are retried")
	assert.LessOrEqual(t, res.Elapsed, 200*time.Millisecond+100*time.Millisecond)
	assert.Equal(t, res.Elapsed.Round(time.Millisecond).String(), readinessErr.Elapsed, "reports the measured wait")
}

func TestWaitTimesOutOnConnectionRefused(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	res, err := New(fastOptions("http://"+addr), logger.Nop()).Wait(context.Background())
	var readinessErr *pkgerrors.ReadinessError
	require.ErrorAs(t, err, &readinessErr)
	assert.Zero(t, readinessErr.LastStatus)
	assert.Greater(t, res.Attempts, 1)
}

func TestWaitStopsOnCancel(t *testing.T) {
	t.Parallel()

	srv, _ := statusServer(t, http.StatusServiceUnavailable)
	opts := fastOptions(srv.URL)
	opts.Timeout = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(opts, logger.Nop()).Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
