package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"filemeta/internal/model"
)

// Metrics holds the prometheus collectors for function invocations.
// A nil *Metrics records nothing.
type Metrics struct {
	invocations  *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	bytesWritten *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "function_invocations_total",
				Help: "Total number of function invocations by terminal status.",
			},
			[]string{"function", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "function_invocation_duration_seconds",
				Help:    "Wall time of function invocations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"function"},
		),
		bytesWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "function_bytes_written_total",
				Help: "Bytes written to output blobs by functions.",
			},
			[]string{"function"},
		),
	}

	for _, c := range []prometheus.Collector{m.invocations, m.duration, m.bytesWritten} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(function string, status model.InvocationStatus, elapsed time.Duration, written int64) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(function, string(status)).Inc()
	m.duration.WithLabelValues(function).Observe(elapsed.Seconds())
	if written > 0 {
		m.bytesWritten.WithLabelValues(function).Add(float64(written))
	}
}
