// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "anistream"

var (
	fetchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_fetch_attempts_total",
		Help:      "Upstream fetch attempts by outcome.",
	}, []string{"outcome"})

	proxyResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proxy_responses_total",
		Help:      "Manifest proxy responses by final state and status code.",
	}, []string{"state", "code"})

	providerOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_outcomes_total",
		Help:      "Provider adapter calls by provider, operation and status.",
	}, []string{"provider", "operation", "status"})
)

// FetchAttempt counts one upstream attempt.
func FetchAttempt(outcome string) {
	fetchAttempts.WithLabelValues(outcome).Inc()
}

// ProxyResponse counts one finished proxy request.
func ProxyResponse(state string, code int) {
	proxyResponses.WithLabelValues(state, strconv.Itoa(code)).Inc()
}

// ProviderOutcome counts one adapter call.
func ProviderOutcome(provider, operation, status string) {
	providerOutcomes.WithLabelValues(provider, operation, status).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
