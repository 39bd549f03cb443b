package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/listing-watcher/internal/domain"
	"github.com/user/listing-watcher/internal/monitoring"
	"github.com/user/listing-watcher/internal/renderer"
)

// Renderer returns the rendered HTML of one search page.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Extractor turns one page's HTML into listing records.
type Extractor interface {
	Extract(html string) ([]domain.Listing, error)
}

// Controller drives the renderer and extractor across result pages and
// aggregates one deduplicated, ordered listing sequence per cycle.
type Controller struct {
	renderer  Renderer
	extractor Extractor
	baseURL   string
	pageDelay time.Duration
	sleep     func(time.Duration)
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

func NewController(r Renderer, e Extractor, baseURL string, pageDelay time.Duration, m *monitoring.Metrics, l *zap.Logger) *Controller {
	return &Controller{
		renderer:  r,
		extractor: e,
		baseURL:   strings.TrimRight(baseURL, "/"),
		pageDelay: pageDelay,
		sleep:     time.Sleep,
		metrics:   m,
		logger:    l,
	}
}

// Crawl walks pages 1..cfg.MaxPages until an empty page or the limit.
// Any render or document-level extract failure aborts the whole crawl:
// partial results would later read as "listings disappeared".
//
// The returned sequence preserves the order in which distinct ids were
// first encountered; that order becomes the delivery order.
func (c *Controller) Crawl(ctx context.Context, cfg domain.SearchConfig) ([]domain.Listing, error) {
	maxPages := cfg.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	seen := make(map[string]struct{})
	var all []domain.Listing

	for page := 1; page <= maxPages; page++ {
		url := c.searchURL(cfg, page)
		c.logger.Info("fetching search page", zap.Int("page", page), zap.String("url", url))

		html, err := c.renderer.Render(ctx, url)
		if err != nil {
			c.metrics.IncCrawlFailures(failureReason(err))
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		listings, err := c.extractor.Extract(html)
		if err != nil {
			c.metrics.IncCrawlFailures("extract")
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		c.metrics.IncPagesFetched()

		if len(listings) == 0 {
			c.logger.Info("empty search page, stopping pagination", zap.Int("page", page))
			break
		}

		for _, l := range listings {
			if _, dup := seen[l.ID]; dup {
				continue
			}
			seen[l.ID] = struct{}{}
			all = append(all, l)
		}
		c.logger.Info("search page parsed",
			zap.Int("page", page),
			zap.Int("listings", len(listings)),
			zap.Int("distinct_total", len(all)))

		if page < maxPages {
			c.sleep(c.pageDelay)
		}
	}

	c.metrics.AddListingsSeen(len(all))
	return all, nil
}

// searchURL builds the site's search URL for one page. Parameter order is
// fixed; the page parameter appears only beyond the first page.
func (c *Controller) searchURL(cfg domain.SearchConfig, page int) string {
	p := cfg.SearchParams
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%s/%s/?FRadius=%d&FAreaOverAllMin=%d&FPriceMax=%d&detailed_search=%d&pet_friendly=%d",
		c.baseURL, cfg.ListingType, cfg.City,
		p.Radius, p.MinArea, p.MaxPrice, p.DetailedSearch, p.PetFriendly)
	if page > 1 {
		fmt.Fprintf(&b, "&page=%d", page)
	}
	return b.String()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, renderer.ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, renderer.ErrTimeout):
		return "timeout"
	case errors.Is(err, renderer.ErrBadStatus):
		return "bad_status"
	default:
		return "navigation"
	}
}
