// Package metrics provides Prometheus instrumentation for the deployment and
// verification pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CompilationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartforge_compilations_total",
			Help: "Total number of Solidity compilations",
		},
		[]string{"status"},
	)

	DeploymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartforge_deployments_total",
			Help: "Total number of contract deployments",
		},
		[]string{"status"},
	)

	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartforge_verifications_total",
			Help: "Total number of explorer verification jobs",
		},
		[]string{"status"},
	)

	PaymentChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartforge_payment_checks_total",
			Help: "Total number of subscription payment verifications",
		},
		[]string{"confirmed"},
	)
)
