package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "starknet_indexer"

// Event outcomes
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

var (
	// EventsFetched counts transfer-family events returned by the node
	EventsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_fetched_total",
			Help:      "Transfer-family events fetched from the node",
		},
	)

	// EventsProcessed counts events by standard and outcome
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Events processed by token standard and outcome",
		},
		[]string{"standard", "outcome"}, // outcome: applied, duplicate, ignored, skipped, failed
	)

	// EventRetries counts replays of events that failed with a retryable error
	EventRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_retries_total",
			Help:      "Replays of events after a retryable failure",
		},
	)

	// PublishFailures counts state changes that could not be published
	PublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "State change notifications that failed to publish",
		},
	)

	// LastSync is the current sync checkpoint
	LastSync = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sync_block",
			Help:      "Last block whose events are all committed",
		},
	)

	// ChainHead is the latest block reported by the node
	ChainHead = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chain_head_block",
			Help:      "Latest block reported by the node",
		},
	)

	// RangeDuration observes the time spent fetching and applying one block range
	RangeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "range_duration_seconds",
			Help:      "Time spent processing one block range",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)
)
