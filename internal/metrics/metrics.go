/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	prefix = "operator_runtime"
)

// Registry is the registry the sample cmd/operator binary exposes on
// /metrics. A host application embedding this module can register it with
// its own HTTP mux instead.
var Registry = prometheus.NewRegistry()

var (
	Reconciles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_reconcile_total",
			Help: "Total number of reconciliation attempts per controller",
		},
		[]string{"controller"},
	)
	ReconcileErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_reconcile_errors_total",
			Help: "Total number of reconciliation errors per controller and type",
		},
		[]string{"controller", "type"},
	)
	Operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_operations_total",
			Help: "Client operations (replace, status patch) per controller and action",
		},
		[]string{"controller", "action"},
	)
	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_queue_pending",
			Help: "Number of resources currently sitting in the coalescing queue per controller",
		},
		[]string{"controller"},
	)
)

func init() {
	Registry.MustRegister(
		Reconciles,
		ReconcileErrors,
		Operations,
		QueueDepth,
	)
}
