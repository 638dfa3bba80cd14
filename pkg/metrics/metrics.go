// pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Signups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sgw_signups_total",
		Help: "Accounts created, by method (password, github, google).",
	}, []string{"method"})

	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sgw_logins_total",
		Help: "Login attempts, by method and outcome.",
	}, []string{"method", "outcome"})

	ProvisioningRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sgw_provisioning_runs_total",
		Help: "Provisioning pipeline runs, by terminal outcome.",
	}, []string{"outcome"})

	ProvisioningStepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sgw_provisioning_step_failures_total",
		Help: "Pipeline step failures, by step name.",
	}, []string{"step"})

	TokenRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sgw_coreapi_token_refreshes_total",
		Help: "Successful CoreAPI client-credentials grants (cache loads excluded).",
	})
)
