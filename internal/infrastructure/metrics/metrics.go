// Package metrics exposes Prometheus counters for the messaging service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Collector struct {
	ConversationsCreated prometheus.Counter
	DedupConflicts       prometheus.Counter
	MessagesSent         prometheus.Counter
	MessagesMarkedRead   prometheus.Counter
}

// NewCollector registers the service counters on reg. Pass
// prometheus.DefaultRegisterer in production; tests use their own registry
// to avoid duplicate registration.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		ConversationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "lapakchat_conversations_created_total",
			Help: "Number of conversations created.",
		}),
		DedupConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "lapakchat_dedup_conflicts_total",
			Help: "Number of get-or-create calls that resolved to an existing conversation.",
		}),
		MessagesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "lapakchat_messages_sent_total",
			Help: "Number of messages accepted.",
		}),
		MessagesMarkedRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "lapakchat_messages_marked_read_total",
			Help: "Number of messages flipped from unread to read.",
		}),
	}
}
