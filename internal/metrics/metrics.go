// Package metrics holds the prometheus collectors for qrforge.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registry all qrforge collectors are registered with.
var Registry = prometheus.NewRegistry()

var (
	// Requests counts finished API requests by endpoint and status code.
	Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qrforge",
		Name:      "requests_total",
		Help:      "API requests by endpoint and HTTP status code.",
	}, []string{"endpoint", "code"})

	// ContrastRejections counts colour pairs refused by the contrast check.
	ContrastRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qrforge",
		Name:      "contrast_rejections_total",
		Help:      "Colour pairs rejected by the contrast check, by kind.",
	}, []string{"kind"})

	// RenderDuration observes time spent drawing and encoding QR codes.
	RenderDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "qrforge",
		Name:      "render_duration_seconds",
		Help:      "Time to render and encode a QR code image.",
		Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"endpoint"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Requests,
		ContrastRejections,
		RenderDuration,
	)
}

// Handler serves Registry for scraping, including promhttp's own
// scrape counters. Collection errors are reported in the response rather
// than failing the scrape.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(Registry, promhttp.HandlerFor(Registry, promhttp.HandlerOpts{
		Registry:          Registry,
		ErrorHandling:     promhttp.ContinueOnError,
		EnableOpenMetrics: true,
	}))
}
