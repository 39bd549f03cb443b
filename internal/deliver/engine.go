package deliver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/listing-watcher/internal/domain"
	"github.com/user/listing-watcher/internal/monitoring"
	"github.com/user/listing-watcher/internal/notify"
)

// maxAttempts bounds rate-limit retries per listing. Once exhausted the
// listing is skipped for the cycle and picked up again next time, since
// its id never reaches the published set.
const maxAttempts = 5

// PublishedStore is the durable record of delivered listing ids.
type PublishedStore interface {
	Load() (map[string]struct{}, error)
	Commit(ids map[string]struct{}) error
}

// Engine diffs one crawl result against the published set and pushes every
// new listing through the notification channel, committing the set after
// each accepted send.
type Engine struct {
	store        PublishedStore
	channel      notify.Channel
	messageDelay time.Duration
	sleep        func(time.Duration)
	metrics      *monitoring.Metrics
	logger       *zap.Logger
}

func NewEngine(store PublishedStore, channel notify.Channel, messageDelay time.Duration, m *monitoring.Metrics, l *zap.Logger) *Engine {
	return &Engine{
		store:        store,
		channel:      channel,
		messageDelay: messageDelay,
		sleep:        time.Sleep,
		metrics:      m,
		logger:       l,
	}
}

// Run delivers every not-yet-published listing in crawl order and returns
// the number of accepted sends. The published set is loaded fresh: a
// previous partially-completed cycle may have changed it on disk.
//
// Listing N+1 is only attempted after listing N reaches a terminal state,
// so delivery order stays deterministic under retries.
func (e *Engine) Run(ctx context.Context, crawled []domain.Listing) (int, error) {
	published, err := e.store.Load()
	if err != nil {
		return 0, fmt.Errorf("load published ids: %w", err)
	}

	var fresh []domain.Listing
	for _, l := range crawled {
		if _, ok := published[l.ID]; !ok {
			fresh = append(fresh, l)
		}
	}
	if len(fresh) == 0 {
		e.logger.Info("no new listings", zap.Int("crawled", len(crawled)))
		return 0, nil
	}
	e.logger.Info("new listings found", zap.Int("count", len(fresh)))

	delivered := 0
	for _, l := range fresh {
		if !e.deliver(ctx, l) {
			e.metrics.IncDeliveries("failed")
			continue
		}

		// Commit immediately, not at cycle end: a crash between two
		// deliveries must leave the snapshot matching what was sent.
		published[l.ID] = struct{}{}
		if err := e.store.Commit(published); err != nil {
			return delivered, fmt.Errorf("commit published ids after %s: %w", l.ID, err)
		}
		delivered++
		e.metrics.IncDeliveries("delivered")

		// Pause after every send regardless of backoff state, so the next
		// message does not trip flood control.
		e.sleep(e.messageDelay)
	}

	e.logger.Info("delivery finished",
		zap.Int("delivered", delivered),
		zap.Int("skipped", len(fresh)-delivered))
	return delivered, nil
}

// deliver pushes one listing to a terminal state: true on an accepted send,
// false on permanent failure or an exhausted rate-limit budget.
func (e *Engine) deliver(ctx context.Context, l domain.Listing) bool {
	text := FormatMessage(l)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := e.channel.Send(ctx, text)
		if err == nil {
			return true
		}

		var rateLimited *notify.RateLimitedError
		if !errors.As(err, &rateLimited) {
			e.logger.Error("delivery failed",
				zap.String("id", l.ID),
				zap.Error(err))
			return false
		}

		e.metrics.IncDeliveryRetries()
		if attempt == maxAttempts {
			e.logger.Error("flood control attempts exhausted",
				zap.String("id", l.ID),
				zap.Int("attempts", attempt))
			return false
		}
		e.logger.Warn("flood control, backing off",
			zap.String("id", l.ID),
			zap.Duration("retry_after", rateLimited.RetryAfter),
			zap.Int("attempt", attempt))
		e.sleep(rateLimited.RetryAfter)
	}
	return false
}
