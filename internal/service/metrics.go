package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_registrations_total",
			Help: "Total number of registration attempts by outcome.",
		},
		[]string{"outcome"},
	)

	eventsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "events_created_total",
		Help: "Total number of created events.",
	})

	dispatchMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_dispatch_messages_total",
			Help: "Push messages per dispatch outcome (sent, skipped, failed).",
		},
		[]string{"gateway", "outcome"},
	)

	dispatchBatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "push_dispatch_batch_duration_seconds",
			Help:    "Latency of a single gateway batch send.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"gateway", "result"},
	)

	prunedSubscriptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "push_pruned_subscriptions_total",
		Help: "Subscriptions removed after the gateway reported an unregistered device.",
	})
)

// Значения label outcome для registrationsTotal.
const (
	outcomeOK                = "ok"
	outcomeFull              = "full"
	outcomeAlreadyRegistered = "already_registered"
	outcomePast              = "past"
	outcomeNotFound          = "not_found"
	outcomeInvalid           = "invalid"
	outcomeError             = "error"
)
