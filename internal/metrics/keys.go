// Package metrics tracks ingestion counters in Redis and exposes them to
// Prometheus.
package metrics

// KeyPrefix namespaces every ingestion counter key in Redis.
const KeyPrefix = "streetcode_ingestion_"

// Counter names one ingestion counter.
type Counter string

// Ingestion counters. Every message increments Received plus exactly one
// outcome counter.
const (
	Received       Counter = "received"
	SkippedNonCore Counter = "skipped_non_core"
	Ingested       Counter = "ingested"
	Duplicate      Counter = "duplicate"
	Invalid        Counter = "invalid"
	Failed         Counter = "failed"
)

// AllCounters lists every counter in display order.
var AllCounters = []Counter{Received, SkippedNonCore, Ingested, Duplicate, Invalid, Failed}

// Key returns the Redis key holding c.
func (c Counter) Key() string {
	return KeyPrefix + string(c) + "_total"
}
