package messaging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_created_messages_published_total",
		Help: "Messages published to the event_created queue.",
	})

	messagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_created_messages_consumed_total",
			Help: "Messages taken from the event_created queue by result.",
		},
		[]string{"result"},
	)

	notifierDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "async_notifier_dropped_total",
		Help: "Events not dispatched because the in-process queue was full.",
	})
)
