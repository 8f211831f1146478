package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/siherrmann/finrag/model"
)

// Metrics holds the Prometheus collectors of the API on a dedicated registry.
type Metrics struct {
	registry          *prometheus.Registry
	askTotal          *prometheus.CounterVec
	askDuration       prometheus.Histogram
	retrievedArticles prometheus.Histogram
	requestsTotal     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		askTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finrag_ask_total",
				Help: "Total number of answered questions by outcome",
			},
			[]string{"outcome"},
		),
		askDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "finrag_ask_duration_seconds",
				Help:    "Duration of ask requests",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		retrievedArticles: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "finrag_retrieved_articles",
				Help:    "Number of articles passing the relevance gate per question",
				Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
			},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finrag_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}

	m.registry.MustRegister(m.askTotal, m.askDuration, m.retrievedArticles, m.requestsTotal)
	return m
}

// ObserveAsk records one finished ask call.
func (m *Metrics) ObserveAsk(result *model.AskResult, duration time.Duration) {
	m.askTotal.WithLabelValues(string(result.Outcome)).Inc()
	m.askDuration.Observe(duration.Seconds())
	m.retrievedArticles.Observe(float64(result.NumArticles))
}
