package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// outcomesTotal counts completed callbacks by outcome.
	outcomesTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "oidc_login_outcomes_total",
			Help: "Number of completed OIDC callbacks, differentiated by outcome.",
		},
		[]string{"outcome"},
	)

	// exchangeSeconds observes the duration of code exchange and id token validation.
	exchangeSeconds = promauto.NewHistogram( //nolint:gochecknoglobals
		prometheus.HistogramOpts{
			Name:    "oidc_token_exchange_duration_seconds",
			Help:    "Duration of the token endpoint call including id token validation.",
			Buckets: prometheus.DefBuckets,
		},
	)
)
