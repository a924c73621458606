package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "streetcode_ingestor"

// Collectors holds the Prometheus metrics scraped from /metrics.
type Collectors struct {
	Messages           *prometheus.CounterVec
	ProcessingDuration prometheus.Histogram
	Dropped            *prometheus.CounterVec
	Retries            prometheus.Counter
	InFlight           prometheus.Gauge
	MaintenanceRows    *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewCollectors registers the ingestor metrics with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)

	c := &Collectors{
		Messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages processed, by ingestion counter.",
		}, []string{"counter"}),
		ProcessingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "processing_duration_seconds",
			Help:      "Time spent processing one message.",
			Buckets:   prometheus.DefBuckets,
		}),
		Dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_total",
			Help:      "Messages dropped by the subscriber before or after processing, by reason.",
		}, []string{"reason"}),
		Retries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Message processing retries after a persistence failure.",
		}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "in_flight_messages",
			Help:      "Messages currently being processed.",
		}),
		MaintenanceRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maintenance_rows_total",
			Help:      "Rows changed by maintenance jobs, by job.",
		}, []string{"job"}),
	}

	if g, ok := reg.(prometheus.Gatherer); ok {
		c.gatherer = g
	} else {
		c.gatherer = prometheus.DefaultGatherer
	}

	return c
}

// Observe records the counters and duration of one processed message.
func (c *Collectors) Observe(duration time.Duration, counters ...Counter) {
	for _, counter := range counters {
		c.Messages.WithLabelValues(string(counter)).Inc()
	}
	c.ProcessingDuration.Observe(duration.Seconds())
}

// Handler returns the Prometheus HTTP handler for the collectors' registry.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
