// Package metrics exposes Prometheus counters for channel operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ChannelsCreated counts successful channel creations.
	ChannelsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "powerpay_channels_created_total",
		Help: "Number of payment channels created.",
	})

	// ChannelsClosed counts successful channel closes.
	ChannelsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "powerpay_channels_closed_total",
		Help: "Number of payment channels closed.",
	})

	// IntentsAdded counts accepted micropayment intents.
	IntentsAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "powerpay_intents_total",
		Help: "Number of micropayment intents accepted.",
	})

	// Settlements counts settlement attempts by outcome ("executed" or "skipped").
	Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "powerpay_settlements_total",
		Help: "Number of probabilistic settlement attempts by outcome.",
	}, []string{"result"})

	// AmountPaid accumulates the value settled into paid_amount.
	AmountPaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "powerpay_amount_paid_total",
		Help: "Total value settled to payees, in smallest currency units.",
	})
)

// SettlementResultLabel converts an executed flag to the counter label.
func SettlementResultLabel(executed bool) string {
	if executed {
		return "executed"
	}
	return "skipped"
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
