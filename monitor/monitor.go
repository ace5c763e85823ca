// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wfunc/dicebox/logger"
	"github.com/wfunc/dicebox/state"
)

type Metrics struct {
	ButtonPresses  *prometheus.CounterVec
	Rolls          *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
	ActiveTables   prometheus.Gauge
	PressLatency   prometheus.Histogram
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ButtonPresses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "button_presses_total",
			Help:      "Button presses by the state they were pressed in",
		}, []string{"from"}),
		Rolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rolls_total",
			Help:      "Numbers shown when the dice stopped",
		}, []string{"number"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of connected websocket sessions",
		}),
		ActiveTables: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_tables",
			Help:      "Number of shared dice tables",
		}),
		PressLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "press_latency_seconds",
			Help:      "Time spent handling a remote button press",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}

	reg.MustRegister(
		m.ButtonPresses,
		m.Rolls,
		m.ActiveSessions,
		m.ActiveTables,
		m.PressLatency,
	)

	return m
}

var publishOnce sync.Once

type Monitor struct {
	metrics    *Metrics
	registry   *prometheus.Registry
	startTime  time.Time
	pressCount int64
	mutex      sync.Mutex
}

func NewMonitor(namespace string) *Monitor {
	reg := prometheus.NewRegistry()
	return &Monitor{
		metrics:   NewMetrics(namespace, reg),
		registry:  reg,
		startTime: time.Now(),
	}
}

// Handler serves the monitor's registry in the Prometheus text format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Monitor) StartServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/debug/vars", expvar.Handler())

	// 添加expvar指标
	publishOnce.Do(func() {
		expvar.Publish("uptime", expvar.Func(func() interface{} {
			return time.Since(m.startTime).Seconds()
		}))
		expvar.Publish("presses", expvar.Func(func() interface{} {
			return m.Presses()
		}))
	})

	go func() {
		logger.Log.Infof("Metrics listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Log.Errorf("Metrics server stopped: %v", err)
		}
	}()
}

// OnTransition makes the monitor a state.Observer.
func (m *Monitor) OnTransition(t state.Transition) {
	m.metrics.ButtonPresses.WithLabelValues(t.From.String()).Inc()
	if t.From == state.StopDice && t.Number != nil {
		m.metrics.Rolls.WithLabelValues(strconv.Itoa(int(*t.Number))).Inc()
	}
	m.mutex.Lock()
	m.pressCount++
	m.mutex.Unlock()
}

func (m *Monitor) Presses() int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.pressCount
}

func (m *Monitor) IncSessions() {
	m.metrics.ActiveSessions.Inc()
}

func (m *Monitor) DecSessions() {
	m.metrics.ActiveSessions.Dec()
}

func (m *Monitor) SetActiveTables(count int) {
	m.metrics.ActiveTables.Set(float64(count))
}

func (m *Monitor) ObservePressLatency(duration time.Duration) {
	m.metrics.PressLatency.Observe(duration.Seconds())
}
