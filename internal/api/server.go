package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/user/listing-watcher/internal/scheduler"
)

// StatusProvider exposes the latest cycle snapshot.
type StatusProvider interface {
	Status() scheduler.CycleStatus
}

// StoreChecker verifies the published-ids snapshot is readable.
type StoreChecker interface {
	Load() (map[string]struct{}, error)
}

// Pinger checks connectivity of an optional backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the ops surface running beside the pipeline. It only reads
// shared state through snapshots, never writes it.
type Server struct {
	port       string
	status     StatusProvider
	store      StoreChecker
	archive    Pinger // may be nil
	gatherer   prometheus.Gatherer
	logger     *zap.Logger
	router     http.Handler
	httpServer *http.Server
}

func NewServer(port string, status StatusProvider, store StoreChecker, archive Pinger, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	s := &Server{
		port:     port,
		status:   status,
		store:    store,
		archive:  archive,
		gatherer: gatherer,
		logger:   logger,
	}
	s.router = s.setupRouter()
	// Built here, not in Start: Shutdown may run from another goroutine
	// before Start gets scheduled.
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
