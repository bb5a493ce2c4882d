// Package metrics derives a normalized page-load record from raw timing samples.
//
// # Records
//
// [Collect] turns a [timing.Snapshot] into a [Record]:
//
//	rec := metrics.Collect(snap, time.Now())
//
// Durations are milliseconds rounded to two decimals. A missing navigation
// entry is treated as "no data": the navigation-derived fields stay zero and
// resources are still reported.
//
// # Waiting for load
//
// [Collector.CollectAfterLoad] waits for the source's load-complete signal and
// a short settle delay before reading samples, so late resource entries are
// included:
//
//	c := metrics.Collector{Source: src}
//	rec := c.CollectAfterLoad(ctx)
//
// Failures while reading the source never escape: the returned record is
// zeroed, its protocol is "unknown" and Error carries the diagnostic.
//
// # Trial latency
//
// [LatencyRecorder] aggregates per-trial latencies into an HDR histogram for
// percentile summaries during log capture. It is safe for concurrent use.
package metrics
