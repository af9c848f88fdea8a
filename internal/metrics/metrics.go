// Package metrics exports the engine's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "finance_accrual"

var PassDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "engine",
	Name:      "pass_duration_seconds",
	Help:      "Duration of engine passes by entry point.",
	Buckets:   prometheus.DefBuckets,
}, []string{"entry_point"})

var PassFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "engine",
	Name:      "pass_failures_total",
	Help:      "Passes rolled back because of an error.",
}, []string{"entry_point"})

var TransactionsPosted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "engine",
	Name:      "transactions_posted_total",
	Help:      "Transactions committed by the engine, by source.",
}, []string{"source"})

var RegularHalted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "engine",
	Name:      "regular_halted_total",
	Help:      "Recurring chains stopped early for lack of funds or balance overflow.",
})

var CreditPenalties = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "credit",
	Name:      "penalties_total",
	Help:      "Penalties recorded for missed credit installments.",
})

var EntitiesClosed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "engine",
	Name:      "entities_closed_total",
	Help:      "Credits and deposits closed, by entity and how.",
}, []string{"entity", "how"})

// Transaction sources.
const (
	SourceRegular      = "regular"
	SourceSubscription = "subscription"
	SourceCredit       = "credit"
	SourceDeposit      = "deposit"
	SourceManual       = "manual"
)
