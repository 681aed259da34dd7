package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CepLookupMetrics records resolution outcomes per source tier.
type CepLookupMetrics struct {
	lookups  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCepLookupMetrics registers the CEP lookup metrics on the provided registerer.
func NewCepLookupMetrics(reg prometheus.Registerer) *CepLookupMetrics {
	if reg == nil {
		return &CepLookupMetrics{}
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cep_lookups_total",
		Help: "CEP lookups by source and outcome.",
	}, []string{"source", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cep_lookup_duration_seconds",
		Help:    "End to end CEP lookup duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	reg.MustRegister(lookups, duration)
	return &CepLookupMetrics{lookups: lookups, duration: duration}
}

// IncLookup records a lookup outcome for the given source tier.
func (c *CepLookupMetrics) IncLookup(source, outcome string) {
	if c == nil || c.lookups == nil {
		return
	}
	c.lookups.WithLabelValues(orUnknown(source), orUnknown(outcome)).Inc()
}

// ObserveDuration records the lookup duration attributed to the winning source.
func (c *CepLookupMetrics) ObserveDuration(source string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(orUnknown(source)).Observe(duration.Seconds())
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
