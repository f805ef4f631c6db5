package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals
var (
	settledDeals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tonhunter_settled_deals_total",
		Help: "Deals settled by the settlement monitor.",
	})

	payoutFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tonhunter_payout_failures_total",
		Help: "Payout attempts that failed after a matched transfer.",
	})

	expiredDeals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tonhunter_expired_deals_total",
		Help: "Deals swept to expired_timeout.",
	})

	scanCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tonhunter_scan_cycles_total",
		Help: "Completed marketplace scan cycles.",
	})

	dealsFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tonhunter_deals_found_total",
		Help: "Deals created from scanned listings.",
	})
)
