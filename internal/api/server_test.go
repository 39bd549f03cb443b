package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/listing-watcher/internal/scheduler"
)

type stubStatus struct {
	status scheduler.CycleStatus
}

func (s stubStatus) Status() scheduler.CycleStatus { return s.status }

type stubStore struct {
	err error
}

func (s stubStore) Load() (map[string]struct{}, error) {
	if s.err != nil {
		return nil, s.err
	}
	return map[string]struct{}{}, nil
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

func newTestServer(store StoreChecker, archive Pinger) *Server {
	status := stubStatus{status: scheduler.CycleStatus{Cycles: 3, Listings: 12, Delivered: 2}}
	return NewServer("0", status, store, archive, prometheus.NewRegistry(), zap.NewNop())
}

func TestShutdownBeforeStart(t *testing.T) {
	s := newTestServer(stubStore{}, nil)
	// main shuts the server down from another goroutine; this must be safe
	// even if Start never ran.
	require.NoError(t, s.Shutdown(context.Background()))
}

func TestHealthzHealthy(t *testing.T) {
	s := newTestServer(stubStore{}, stubPinger{})

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"published_store":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"archive":"healthy"`)
}

func TestHealthzUnhealthyStore(t *testing.T) {
	s := newTestServer(stubStore{err: errors.New("snapshot unreadable")}, nil)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"published_store":"unhealthy"`)
}

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer(stubStore{}, nil)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cycles":3`)
	assert.Contains(t, rec.Body.String(), `"delivered":2`)
}
