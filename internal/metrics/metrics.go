// Package metrics defines the Prometheus collectors for the poller and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the poller.
type Metrics struct {
	CyclesTotal       *prometheus.CounterVec
	CycleDuration     prometheus.Histogram
	FetchErrorsTotal  prometheus.Counter
	ListingsFetched   prometheus.Counter
	ListingsPersisted prometheus.Counter
	ListingsDuplicate prometheus.Counter
	ListingsDropped   prometheus.Counter
	AlertsPublished   prometheus.Counter
	BatchMedianPrice  prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poll_cycles_total",
				Help: "Total poll cycles by outcome (ok, error).",
			},
			[]string{"outcome"},
		),
		CycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "poll_cycle_duration_seconds",
				Help:    "Duration of one poll cycle in seconds.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
		FetchErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fetch_errors_total",
				Help: "Total failed keyword queries.",
			},
		),
		ListingsFetched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "listings_fetched_total",
				Help: "Total listings returned by upstream searches.",
			},
		),
		ListingsPersisted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "listings_persisted_total",
				Help: "Total newly observed listings written to the store.",
			},
		),
		ListingsDuplicate: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "listings_duplicate_total",
				Help: "Total listings skipped because their ID was already in the ledger.",
			},
		),
		ListingsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "listings_dropped_total",
				Help: "Total listings dropped for missing an identifier.",
			},
		),
		AlertsPublished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "alerts_published_total",
				Help: "Total high-risk listing alerts published.",
			},
		),
		BatchMedianPrice: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "batch_median_price",
				Help: "Median price of the most recent fetched batch.",
			},
		),
	}

	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.FetchErrorsTotal,
		m.ListingsFetched,
		m.ListingsPersisted,
		m.ListingsDuplicate,
		m.ListingsDropped,
		m.AlertsPublished,
		m.BatchMedianPrice,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
