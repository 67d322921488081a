package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Login-flow Prometheus metrics. Defined in a standalone package so the
// auth and HTTP layers can share them without import cycles.

var (
	LoginCallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_login_callbacks_total",
		Help: "OAuth callback outcomes by provider",
	}, []string{"provider", "outcome"})

	TokenExchanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_token_exchanges_total",
		Help: "Token endpoint exchanges by provider, grant type and outcome",
	}, []string{"provider", "grant_type", "outcome"})

	ExchangeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oauth_token_exchange_seconds",
		Help:    "Token endpoint round-trip latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	LoginCodeConsumes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_login_code_consumes_total",
		Help: "One-time login code consumption results",
	}, []string{"result"})

	LoginCodeDuplicatePuts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "oauth_login_code_duplicate_puts_total",
		Help: "One-time login code puts dropped because the code already existed",
	})
)

// Register registers the auth metrics on the given registry (or the default
// if nil). Double registration is tolerated for tests.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		LoginCallbacks,
		TokenExchanges,
		ExchangeLatency,
		LoginCodeConsumes,
		LoginCodeDuplicatePuts,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
