package logger

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	// logStatements counts log events per level. It is registered once per process,
	// labelled with the service name of the first Init.
	logStatements *prometheus.CounterVec //nolint:gochecknoglobals
	registerOnce  sync.Once              //nolint:gochecknoglobals
)

// PrometheusHook counts every leveled log event.
type PrometheusHook struct{}

// Run implements zerolog.Hook.
func (PrometheusHook) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if level != zerolog.NoLevel {
		logStatements.WithLabelValues(level.String()).Inc()
	}
}

// NewPrometheusHook registers the log_statements_total counter for service.
func NewPrometheusHook(service string) PrometheusHook {
	registerOnce.Do(func() {
		logStatements = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "log_statements_total",
				Help:        "Number of log statements, differentiated by log level.",
				ConstLabels: prometheus.Labels{"service": service},
			},
			[]string{"level"},
		)
	})

	return PrometheusHook{}
}
