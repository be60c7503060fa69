package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReelGenerationsTotal counts strategy attempts by outcome
	ReelGenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photobooth_reel_generations_total",
		Help: "Reel generation attempts by strategy and outcome",
	}, []string{"strategy", "outcome"})

	ReelGenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "photobooth_reel_generation_duration_seconds",
		Help:    "Time spent producing a reel, by the strategy that produced it",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{"strategy"})

	SlugCollisionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "photobooth_slug_collisions_total",
		Help: "Slug assignments rejected by the unique index",
	})

	// NotificationsTotal counts per-channel share results
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photobooth_notifications_total",
		Help: "Share notifications by channel and outcome",
	}, []string{"channel", "outcome"})

	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photobooth_http_requests_total",
		Help: "HTTP requests by method and status",
	}, []string{"method", "status"})
)
