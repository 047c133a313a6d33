package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for a Dispatcher. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	lines   prometheus.Counter
	emitted *prometheus.CounterVec
	dropped *prometheus.CounterVec
	skipped prometheus.Counter
	retries prometheus.Counter
	pending prometheus.Gauge
	decoded *prometheus.CounterVec
}

// NewMetrics creates and registers dispatcher metrics. A nil registerer
// disables metrics and returns nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		lines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nmea",
			Subsystem: "dispatch",
			Name:      "lines_total",
			Help:      "Non-empty lines read from the source",
		}),
		emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nmea",
			Subsystem: "dispatch",
			Name:      "messages_total",
			Help:      "Complete messages emitted, by talker and identifier",
		}, []string{"talker", "identifier"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nmea",
			Subsystem: "dispatch",
			Name:      "dropped_total",
			Help:      "Lines or pending groups dropped, by reason",
		}, []string{"reason"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nmea",
			Subsystem: "dispatch",
			Name:      "skipped_total",
			Help:      "Valid lines with a sentence type that is not decoded",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nmea",
			Subsystem: "dispatch",
			Name:      "source_retries_total",
			Help:      "Source read errors that were retried",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nmea",
			Subsystem: "dispatch",
			Name:      "pending_groups",
			Help:      "Multi-line groups waiting for more lines",
		}),
		decoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nmea",
			Subsystem: "decode",
			Name:      "results_total",
			Help:      "Decode attempts by identifier and result (ok/error)",
		}, []string{"identifier", "result"}),
	}

	for _, c := range []prometheus.Collector{m.lines, m.emitted, m.dropped, m.skipped, m.retries, m.pending, m.decoded} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) line() {
	if m == nil {
		return
	}
	m.lines.Inc()
}

func (m *Metrics) emit(msg Message) {
	if m == nil {
		return
	}
	m.emitted.WithLabelValues(msg.Talker.String(), msg.Identifier.String()).Inc()
}

func (m *Metrics) drop(reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) skip() {
	if m == nil {
		return
	}
	m.skipped.Inc()
}

func (m *Metrics) retry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

func (m *Metrics) setPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

func (m *Metrics) decode(msg Message, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.decoded.WithLabelValues(msg.Identifier.String(), result).Inc()
}
