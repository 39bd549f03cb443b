package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CyclesTotal     *prometheus.CounterVec
	PagesFetched    prometheus.Counter
	CrawlFailures   *prometheus.CounterVec
	ListingsSeen    prometheus.Counter
	DeliveriesTotal *prometheus.CounterVec
	DeliveryRetries prometheus.Counter
	CycleDuration   prometheus.Histogram
}

// NewMetrics registers all metrics with the given registerer. Tests pass a
// private registry so packages can be exercised in parallel.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "watcher_cycles_total",
			Help: "The total number of crawl/delivery cycles by outcome",
		}, []string{"outcome"}), // e.g. 'ok', 'empty', 'crawl_failed', 'delivery_failed', 'panic'
		PagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "watcher_pages_fetched_total",
			Help: "The total number of search pages fetched and parsed",
		}),
		CrawlFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "watcher_crawl_failures_total",
			Help: "The total number of aborted crawls by reason",
		}, []string{"reason"}), // e.g. 'access_denied', 'timeout', 'navigation', 'extract'
		ListingsSeen: factory.NewCounter(prometheus.CounterOpts{
			Name: "watcher_listings_seen_total",
			Help: "The total number of distinct listings returned by crawls",
		}),
		DeliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "watcher_deliveries_total",
			Help: "The total number of delivery attempts reaching a terminal state",
		}, []string{"status"}), // 'delivered' or 'failed'
		DeliveryRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "watcher_delivery_retries_total",
			Help: "The total number of rate-limited delivery retries",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "watcher_cycle_duration_seconds",
			Help:    "Duration of full crawl/delivery cycles",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}
}

func (m *Metrics) IncCycles(outcome string) {
	m.CyclesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncPagesFetched() {
	m.PagesFetched.Inc()
}

func (m *Metrics) IncCrawlFailures(reason string) {
	m.CrawlFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) AddListingsSeen(n int) {
	m.ListingsSeen.Add(float64(n))
}

func (m *Metrics) IncDeliveries(status string) {
	m.DeliveriesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) IncDeliveryRetries() {
	m.DeliveryRetries.Inc()
}

func (m *Metrics) ObserveCycleDuration(d time.Duration) {
	m.CycleDuration.Observe(d.Seconds())
}
