package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

// Metrics is nil-safe: every Observe* method is a no-op on a nil receiver so
// callers never branch on whether metrics are enabled.
type Metrics struct {
	registry *prometheus.Registry

	crisisChecks   *prometheus.CounterVec
	routes         *prometheus.CounterVec
	generations    *prometheus.CounterVec
	providerCalls  *prometheus.HistogramVec
	pointsAwarded  *prometheus.CounterVec
	badgeUnlocks   *prometheus.CounterVec
	turns          *prometheus.HistogramVec
	memoryConflict prometheus.Counter
	apiRequests    *prometheus.HistogramVec
	apiInflight    prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide metrics registry.
func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("prometheus metrics initialized")
		}
	})
	return instance
}

func Current() *Metrics {
	return instance
}

// NewMetrics builds an isolated registry; tests use it directly.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		crisisChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pillars_crisis_checks_total",
			Help: "Crisis gate classifications by severity.",
		}, []string{"severity", "classifier_failed"}),
		routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pillars_routing_decisions_total",
			Help: "Routing decisions by target pillar.",
		}, []string{"pillar", "redirected", "locked"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pillars_persona_generations_total",
			Help: "Persona generation outcomes.",
		}, []string{"persona", "outcome"}),
		providerCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pillars_provider_call_seconds",
			Help:    "Latency of text completion provider calls.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"model", "status"}),
		pointsAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pillars_points_awarded_total",
			Help: "Gamification points awarded by reason kind.",
		}, []string{"reason"}),
		badgeUnlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pillars_badge_unlocks_total",
			Help: "Achievement unlocks by badge.",
		}, []string{"badge"}),
		turns: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pillars_chat_turn_seconds",
			Help:    "End-to-end orchestration latency by outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		memoryConflict: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pillars_memory_write_conflicts_total",
			Help: "Conversation memory saves that lost an optimistic version race twice.",
		}),
		apiRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pillars_http_request_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pillars_http_inflight_requests",
			Help: "HTTP requests currently being served.",
		}),
	}
	reg.MustRegister(m.crisisChecks, m.routes, m.generations, m.providerCalls, m.pointsAwarded, m.badgeUnlocks, m.turns, m.memoryConflict, m.apiRequests, m.apiInflight)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveCrisisCheck(severity string, classifierFailed bool) {
	if m == nil {
		return
	}
	m.crisisChecks.WithLabelValues(severity, strconv.FormatBool(classifierFailed)).Inc()
}

func (m *Metrics) ObserveRoute(pillar string, redirected, locked bool) {
	if m == nil {
		return
	}
	m.routes.WithLabelValues(pillar, strconv.FormatBool(redirected), strconv.FormatBool(locked)).Inc()
}

func (m *Metrics) ObserveGeneration(persona, outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(persona, outcome).Inc()
}

func (m *Metrics) ObserveProviderCall(model, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(model, status).Observe(d.Seconds())
}

func (m *Metrics) AddPoints(reason string, points int) {
	if m == nil || points <= 0 {
		return
	}
	m.pointsAwarded.WithLabelValues(reason).Add(float64(points))
}

func (m *Metrics) ObserveBadgeUnlock(badgeID string) {
	if m == nil {
		return
	}
	m.badgeUnlocks.WithLabelValues(badgeID).Inc()
}

func (m *Metrics) ObserveTurn(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) ObserveMemoryConflict() {
	if m == nil {
		return
	}
	m.memoryConflict.Inc()
}

func (m *Metrics) ObserveAPI(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Observe(d.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}
