package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"cruise-scraper/models"
)

// Suite lookup results.
const (
	SuiteFound   = "found"
	SuiteEmpty   = "empty"
	SuiteFailed  = "failed"
	SuiteSkipped = "skipped"
)

// RunMetrics holds the counters for one CLI invocation. It uses a private
// registry so nothing leaks into the default one. A nil *RunMetrics is valid
// and records nothing.
type RunMetrics struct {
	registry *prometheus.Registry

	listings         prometheus.Counter
	sailings         prometheus.Counter
	extractions      *prometheus.CounterVec
	suiteLookups     *prometheus.CounterVec
	paginationClicks prometheus.Counter
	pricingRows      *prometheus.CounterVec
	runDuration      prometheus.Histogram
}

func New() *RunMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &RunMetrics{
		registry: reg,
		listings: factory.NewCounter(prometheus.CounterOpts{
			Name: "cruise_scraper_listings_total",
			Help: "Listings discovered on the search page.",
		}),
		sailings: factory.NewCounter(prometheus.CounterOpts{
			Name: "cruise_scraper_sailings_total",
			Help: "Sailings extracted across all listings.",
		}),
		extractions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cruise_scraper_listing_extractions_total",
			Help: "Listing detail extractions by outcome.",
		}, []string{"status"}),
		suiteLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cruise_scraper_suite_lookups_total",
			Help: "Suite sub-tier lookups by result.",
		}, []string{"result"}),
		paginationClicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "cruise_scraper_pagination_clicks_total",
			Help: "Load-more clicks issued while paginating.",
		}),
		pricingRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cruise_scraper_pricing_rows_total",
			Help: "Pricing rows appended, per sink.",
		}, []string{"sink"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cruise_scraper_run_duration_seconds",
			Help:    "Wall-clock duration of a scrape run.",
			Buckets: []float64{30, 60, 120, 300, 600, 1200, 1800, 3600},
		}),
	}
}

func (m *RunMetrics) ListingsFound(n int) {
	if m == nil {
		return
	}
	m.listings.Add(float64(n))
}

func (m *RunMetrics) PaginationClick() {
	if m == nil {
		return
	}
	m.paginationClicks.Inc()
}

// ListingExtracted records the outcome of one listing's detail extraction.
func (m *RunMetrics) ListingExtracted(status models.ExtractionStatus, sailings int) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(string(status)).Inc()
	m.sailings.Add(float64(sailings))
}

func (m *RunMetrics) SuiteLookup(result string) {
	if m == nil {
		return
	}
	m.suiteLookups.WithLabelValues(result).Inc()
}

func (m *RunMetrics) RowsAppended(sink string, n int) {
	if m == nil {
		return
	}
	m.pricingRows.WithLabelValues(sink).Add(float64(n))
}

func (m *RunMetrics) ObserveRun(d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())
}

// Registry exposes the private registry for tests and custom exporters.
func (m *RunMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes all metrics in the node_exporter textfile format.
// An empty path is a no-op.
func (m *RunMetrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("metrics: create dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}
