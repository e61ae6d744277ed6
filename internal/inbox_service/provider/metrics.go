package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var providerRequestDurationHist = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "inbox",
		Name:      "sms_provider_request_duration_seconds",
		Help:      "Duration of outbound SMS provider requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"provider", "outcome"},
)
