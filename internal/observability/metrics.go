package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	queueDepth     *prometheus.GaugeVec
	enqueueTotal   *prometheus.CounterVec
	processedTotal *prometheus.CounterVec
	droppedTotal   *prometheus.CounterVec

	generateDuration prometheus.Histogram
	activeSessions   prometheus.Gauge
	registeredAgents prometheus.Gauge
	modelUp          prometheus.Gauge
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			queueDepth: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "queue_depth",
					Help: "Current pending message count by agent.",
				},
				[]string{"agent"},
			),
			enqueueTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "enqueue_total",
					Help: "Total messages enqueued by agent.",
				},
				[]string{"agent"},
			),
			processedTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "processed_total",
					Help: "Total messages processed by agent and status.",
				},
				[]string{"agent", "status"},
			),
			droppedTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "dropped_total",
					Help: "Total messages dropped during session teardown by agent.",
				},
				[]string{"agent"},
			),
			generateDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "generate_duration_seconds",
					Help:    "Model generation duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			activeSessions: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "active_sessions",
					Help: "Current session count known to the system.",
				},
			),
			registeredAgents: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "registered_agents",
					Help: "Current registered agent count.",
				},
			),
			modelUp: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "model_up",
					Help: "Model service reachability (1 reachable, 0 unreachable).",
				},
			),
		}

		prometheus.MustRegister(
			m.queueDepth,
			m.enqueueTotal,
			m.processedTotal,
			m.droppedTotal,
			m.generateDuration,
			m.activeSessions,
			m.registeredAgents,
			m.modelUp,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func RecordEnqueue(agent string, queueDepth int) {
	m := getMetrics()
	m.enqueueTotal.WithLabelValues(agent).Inc()
	m.queueDepth.WithLabelValues(agent).Set(float64(queueDepth))
}

func SetQueueDepth(agent string, queueDepth int) {
	m := getMetrics()
	m.queueDepth.WithLabelValues(agent).Set(float64(queueDepth))
}

func RecordProcessed(agent string, duration time.Duration, success bool) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.processedTotal.WithLabelValues(agent, status).Inc()
	m.generateDuration.Observe(duration.Seconds())
}

func RecordDropped(agent string, count int) {
	if count <= 0 {
		return
	}
	m := getMetrics()
	m.droppedTotal.WithLabelValues(agent).Add(float64(count))
}

func SetActiveSessions(count int) {
	m := getMetrics()
	m.activeSessions.Set(float64(count))
}

func SetRegisteredAgents(count int) {
	m := getMetrics()
	m.registeredAgents.Set(float64(count))
}

func SetModelUp(up bool) {
	m := getMetrics()
	if up {
		m.modelUp.Set(1)
	} else {
		m.modelUp.Set(0)
	}
}
