package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/listing-watcher/internal/domain"
	"github.com/user/listing-watcher/internal/monitoring"
)

// ConfigStore provides the search definition snapshot for one cycle.
type ConfigStore interface {
	Load() (domain.SearchConfig, error)
}

// Crawler produces the deduplicated listing sequence for one cycle.
type Crawler interface {
	Crawl(ctx context.Context, cfg domain.SearchConfig) ([]domain.Listing, error)
}

// Deliverer sends new listings and returns how many were accepted.
type Deliverer interface {
	Run(ctx context.Context, crawled []domain.Listing) (int, error)
}

// Archiver persists crawled listings for later analysis. Optional.
type Archiver interface {
	SaveListings(ctx context.Context, listings []domain.Listing) error
}

// CycleStatus is a snapshot of the most recent cycle, served by the ops API.
type CycleStatus struct {
	Cycles     int       `json:"cycles"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Listings   int       `json:"listings"`
	Delivered  int       `json:"delivered"`
	LastError  string    `json:"last_error,omitempty"`
}

// Scheduler runs crawl/delivery cycles on a fixed interval, forever.
// Exactly one cycle runs at a time; the interval is measured from cycle
// completion so a slow crawl cannot compress the gap between cycles.
type Scheduler struct {
	configs  ConfigStore
	crawler  Crawler
	engine   Deliverer
	archive  Archiver // may be nil
	interval time.Duration
	metrics  *monitoring.Metrics
	logger   *zap.Logger

	mu     sync.Mutex
	status CycleStatus
}

func New(configs ConfigStore, crawler Crawler, engine Deliverer, archive Archiver, interval time.Duration, m *monitoring.Metrics, l *zap.Logger) *Scheduler {
	return &Scheduler{
		configs:  configs,
		crawler:  crawler,
		engine:   engine,
		archive:  archive,
		interval: interval,
		metrics:  m,
		logger:   l,
	}
}

// Run loops until ctx is cancelled. Cancellation takes effect between
// cycles: an in-flight cycle always runs to a terminal state first.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		s.runCycle(ctx)
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-time.After(s.interval):
		}
	}
}

// Status returns a copy of the latest cycle snapshot.
func (s *Scheduler) Status() CycleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// runCycle is the containment boundary: no failure inside a cycle may
// terminate the loop.
func (s *Scheduler) runCycle(ctx context.Context) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("cycle panicked", zap.Any("panic", r))
			s.metrics.IncCycles("panic")
			s.finishCycle(started, 0, 0, fmt.Sprintf("panic: %v", r))
		}
	}()

	cfg, err := s.configs.Load()
	if err != nil {
		s.logger.Error("could not load search config, skipping cycle", zap.Error(err))
		s.metrics.IncCycles("config_failed")
		s.finishCycle(started, 0, 0, err.Error())
		return
	}

	listings, err := s.crawler.Crawl(ctx, cfg)
	if err != nil {
		s.logger.Error("crawl failed, skipping cycle", zap.Error(err))
		s.metrics.IncCycles("crawl_failed")
		s.finishCycle(started, 0, 0, err.Error())
		return
	}
	if len(listings) == 0 {
		s.logger.Info("crawl returned no listings")
		s.metrics.IncCycles("empty")
		s.finishCycle(started, 0, 0, "")
		return
	}

	if s.archive != nil {
		if err := s.archive.SaveListings(ctx, listings); err != nil {
			// Archival is best-effort and must never block delivery.
			s.logger.Warn("archive write failed", zap.Error(err))
		}
	}

	delivered, err := s.engine.Run(ctx, listings)
	if err != nil {
		s.logger.Error("delivery aborted", zap.Error(err), zap.Int("delivered", delivered))
		s.metrics.IncCycles("delivery_failed")
		s.finishCycle(started, len(listings), delivered, err.Error())
		return
	}

	if delivered > 0 {
		s.logger.Info("cycle complete", zap.Int("delivered", delivered))
	}
	s.metrics.IncCycles("ok")
	s.metrics.ObserveCycleDuration(time.Since(started))
	s.finishCycle(started, len(listings), delivered, "")
}

func (s *Scheduler) finishCycle(started time.Time, listings, delivered int, lastErr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = CycleStatus{
		Cycles:     s.status.Cycles + 1,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Listings:   listings,
		Delivered:  delivered,
		LastError:  lastErr,
	}
}
