package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	forwardsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inbox",
			Name:      "forwards_total",
			Help:      "Total number of forward attempts by outcome.",
		},
		[]string{"outcome"},
	)

	forwardDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "inbox",
			Name:      "forward_duration_seconds",
			Help:      "Duration of forward requests including the provider call.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	natsInboundSMSReceivedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inbound_processor",
			Name:      "nats_messages_received_total",
			Help:      "Total number of NATS messages received for inbound SMS.",
		},
		[]string{"subject_pattern"},
	)

	inboundSMSProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inbound_processor",
			Name:      "sms_processed_total",
			Help:      "Total number of inbound SMS messages processed.",
		},
		[]string{"provider_name", "status"}, // success, invalid_number, error_db_save
	)

	inboundSMSProcessingDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inbound_processor",
			Name:      "sms_processing_duration_seconds",
			Help:      "Duration of inbound SMS message processing.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider_name"},
	)
)
