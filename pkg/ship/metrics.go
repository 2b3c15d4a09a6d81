package ship

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus metric descriptors for the ship.
type Metrics struct {
	ship      *Ship
	startTime time.Time

	clientsConnected prometheus.Gauge
	hooksRegistered  prometheus.Gauge
	hookCallsTotal   *prometheus.CounterVec
	hookErrorsTotal  *prometheus.CounterVec
	questCallsTotal  *prometheus.CounterVec
	reloadsTotal     *prometheus.CounterVec
	uptimeSeconds    prometheus.Gauge
	memoryHeapBytes  prometheus.Gauge
	goroutines       prometheus.Gauge
}

// NewMetrics creates and registers Prometheus metrics for the ship.
func NewMetrics(s *Ship, startTime time.Time) *Metrics {
	m := &Metrics{
		ship:      s,
		startTime: startTime,
		clientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shipserver_clients_connected",
			Help: "Number of currently connected clients.",
		}),
		hooksRegistered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shipserver_hooks_registered",
			Help: "Number of script actions with a bound handler.",
		}),
		hookCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shipserver_hook_calls_total",
			Help: "Script handler invocations by action.",
		}, []string{"action"}),
		hookErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shipserver_hook_errors_total",
			Help: "Script handler failures by action.",
		}, []string{"action"}),
		questCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shipserver_quest_calls_total",
			Help: "Quest function calls by function and result.",
		}, []string{"function", "result"}),
		reloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shipserver_hook_reloads_total",
			Help: "Hook configuration reloads by outcome.",
		}, []string{"outcome"}),
		uptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shipserver_uptime_seconds",
			Help: "Server uptime in seconds.",
		}),
		memoryHeapBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shipserver_memory_heap_bytes",
			Help: "Go heap memory allocated in bytes.",
		}),
		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shipserver_goroutines",
			Help: "Number of active goroutines.",
		}),
	}

	prometheus.MustRegister(
		m.clientsConnected,
		m.hooksRegistered,
		m.hookCallsTotal,
		m.hookErrorsTotal,
		m.questCallsTotal,
		m.reloadsTotal,
		m.uptimeSeconds,
		m.memoryHeapBytes,
		m.goroutines,
	)

	return m
}

// Update refreshes all gauge metrics from current ship state.
func (m *Metrics) Update() {
	m.clientsConnected.Set(float64(m.ship.ClientCount()))
	m.hooksRegistered.Set(float64(len(m.ship.Bridge().Handlers())))
	m.uptimeSeconds.Set(time.Since(m.startTime).Seconds())

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	m.memoryHeapBytes.Set(float64(mem.HeapAlloc))
	m.goroutines.Set(float64(runtime.NumGoroutine()))
}

// HookCall records a completed handler invocation.
func (m *Metrics) HookCall(action string, failed bool) {
	m.hookCallsTotal.WithLabelValues(action).Inc()
	if failed {
		m.hookErrorsTotal.WithLabelValues(action).Inc()
	}
}

// QuestCall records a quest function dispatch.
func (m *Metrics) QuestCall(function, result string) {
	m.questCallsTotal.WithLabelValues(function, result).Inc()
}

// Reload records a hook configuration reload attempt.
func (m *Metrics) Reload(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.reloadsTotal.WithLabelValues(outcome).Inc()
}

// Handler returns an http.Handler that updates metrics before serving them.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Update()
		promhttp.Handler().ServeHTTP(w, r)
	})
}
