package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookrec_api_requests_total",
		Help: "Total number of HTTP requests to the recommendation API",
	}, []string{"method", "path", "status"})

	HttpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookrec_api_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})

	RecommendationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookrec_recommendations_total",
		Help: "Recommendation requests by algorithm and result",
	}, []string{"algorithm", "result"})

	CatalogBooks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bookrec_catalog_books",
		Help: "Number of books loaded into the recommendation engine",
	})

	ClientOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookrec_client_outcomes_total",
		Help: "Outcomes of outbound /recommend calls",
	}, []string{"outcome"})
)
