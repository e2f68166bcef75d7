package common

import "github.com/prometheus/client_golang/prometheus"

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"
	RaffleTransitionTotal      = "raffle_transitions_total"
	RaffleEntriesTotal         = "raffle_entries_total"
	RafflePayoutTotal          = "raffle_payouts_total"
	RaffleTransferFailure      = "raffle_transfer_failure"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"method", "status_code"}),
		RaffleTransitionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RaffleTransitionTotal,
			Help: "Count of raffle status transitions",
		}, []string{"status"}),
		RaffleEntriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RaffleEntriesTotal,
			Help: "Count of entries appended to raffle ledgers",
		}, []string{"kind"}),
		RafflePayoutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RafflePayoutTotal,
			Help: "Count of payouts made from escrow",
		}, []string{"kind"}),
		RaffleTransferFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RaffleTransferFailure,
			Help: "Count of custody transfer failures",
		}, []string{"operation"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSeconds,
			Help: "Duration of all HTTP requests",
		}, []string{"method", "status_code"}),
	}
)
