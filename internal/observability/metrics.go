package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pintalk_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
		[]string{"kind"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pintalk_ws_events_total",
			Help: "Total number of websocket events received.",
		},
		[]string{"kind", "event"},
	)
	wsBroadcastsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pintalk_ws_broadcast_deliveries_total",
			Help: "Total number of frames delivered through the hub.",
		},
	)
	queueJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pintalk_queue_jobs_total",
			Help: "Total number of background jobs by outcome.",
		},
		[]string{"type", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		wsActiveConnections,
		wsEventsTotal,
		wsBroadcastsTotal,
		queueJobsTotal,
	)
}

func ConnOpened(kind string) {
	wsActiveConnections.WithLabelValues(kind).Inc()
}

func ConnClosed(kind string) {
	wsActiveConnections.WithLabelValues(kind).Dec()
}

func IncWSEvent(kind, event string) {
	wsEventsTotal.WithLabelValues(kind, event).Inc()
}

func BroadcastDelivered(n int) {
	wsBroadcastsTotal.Add(float64(n))
}

func IncQueueJob(jobType, result string) {
	queueJobsTotal.WithLabelValues(jobType, result).Inc()
}

// MetricsHandler exposes the default registry for scraping.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
