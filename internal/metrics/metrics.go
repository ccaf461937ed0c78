package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trades_total",
			Help: "Total executed trades",
		},
		[]string{"side"}, // buy|sell
	)
	TradesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trades_rejected_total",
			Help: "Total rejected trades",
		},
		[]string{"reason"},
	)
	QuoteLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_lookups_total",
			Help: "Total quote provider lookups",
		},
		[]string{"outcome"}, // ok|unknown|error
	)
)

func Init() {
	prometheus.MustRegister(TradesTotal)
	prometheus.MustRegister(TradesRejected)
	prometheus.MustRegister(QuoteLookups)
}
