package runtime

import (
	stderrors "errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/safe-url-paths/errors"
)

const metricsNamespace = "safepath"

// Metrics counts template interpolations.
type Metrics struct {
	calls       prometheus.Counter
	failures    *prometheus.CounterVec
	outputBytes prometheus.Counter
	templates   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on r.
func NewMetrics(r prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "interpolate_calls_total",
			Help:      "number of template interpolations",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "interpolate_failures_total",
			Help:      "number of failed interpolations by error kind",
		}, []string{"kind"}),
		outputBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "output_bytes_total",
			Help:      "bytes of escaped paths produced",
		}),
		templates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "templates_open",
			Help:      "number of compiled templates holding guest memory",
		}),
	}
	err := stderrors.Join(
		r.Register(m.calls),
		r.Register(m.failures),
		r.Register(m.outputBytes),
		r.Register(m.templates),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(out string, err error) {
	if m == nil {
		return
	}
	m.calls.Inc()
	if err != nil {
		m.failures.WithLabelValues(kindOf(err)).Inc()
		return
	}
	m.outputBytes.Add(float64(len(out)))
}

func (m *Metrics) opened() {
	if m != nil {
		m.templates.Inc()
	}
}

func (m *Metrics) closed() {
	if m != nil {
		m.templates.Dec()
	}
}

func kindOf(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return string(e.Kind)
	}
	return "unknown"
}
