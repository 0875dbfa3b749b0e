package accesslog

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts emission outcomes. A nil *Metrics is valid and counts nothing.
type Metrics struct {
	emitted    prometheus.Counter
	suppressed prometheus.Counter
	failures   prometheus.Counter
}

// NewMetrics creates the counters and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		emitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accesslog_events_emitted_total",
			Help: "Access events handed to the backend.",
		}),
		suppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accesslog_events_suppressed_total",
			Help: "Exchanges whose access event was denied.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accesslog_emit_failures_total",
			Help: "Access events the backend failed to append.",
		}),
	}
	for _, c := range []prometheus.Collector{m.emitted, m.suppressed, m.failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) incEmitted() {
	if m != nil {
		m.emitted.Inc()
	}
}

func (m *Metrics) incSuppressed() {
	if m != nil {
		m.suppressed.Inc()
	}
}

func (m *Metrics) incFailures() {
	if m != nil {
		m.failures.Inc()
	}
}
