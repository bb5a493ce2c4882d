package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/torosent/protobench/internal/protocol"
	"github.com/torosent/protobench/internal/stats"
	"github.com/torosent/protobench/internal/timing"
)

// DefaultSettle is the delay after load-complete that lets the final resource
// entries flush before samples are read.
const DefaultSettle = 100 * time.Millisecond

// TimestampLayout is the ISO-8601 layout used for Record.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Collect derives a Record from snap. It never fails; absent navigation data
// leaves the navigation-derived fields at zero.
func Collect(snap timing.Snapshot, now time.Time) Record {
	rec := Record{
		Protocol:  protocol.Detect(snap.Navigation, snap.Resources),
		Resources: make([]ResourceSample, 0, len(snap.Resources)),
		Timestamp: now.UTC().Format(TimestampLayout),
	}

	var totalSize int64
	if nav, ok := snap.Navigation.Entry(); ok {
		rec.TTFB = roundMs(nav.ResponseStart - nav.RequestStart)
		rec.DOMLoad = roundMs(nav.DOMContentLoadedEventEnd - nav.FetchStart)
		rec.FullLoad = roundMs(nav.LoadEventEnd - nav.FetchStart)
		if nav.TransferSize > 0 {
			totalSize = nav.TransferSize
		}
	}

	for _, entry := range snap.Resources {
		size := entry.Size()
		totalSize += size

		proto := entry.NextHopProtocol
		if proto == "" {
			proto = protocol.Unknown
		}
		rec.Resources = append(rec.Resources, ResourceSample{
			Name:      entry.Name,
			Type:      entry.InitiatorType,
			Duration:  roundMs(entry.Duration),
			Size:      size,
			Protocol:  proto,
			StartTime: roundMs(entry.StartTime),
			TTFB:      roundMs(entry.ResponseStart - entry.RequestStart),
		})
	}

	rec.ResourceCount = len(snap.Resources)
	rec.TotalSize = totalSize
	return rec
}

// Failure returns the zeroed record produced when collection fails.
func Failure(err error, now time.Time) Record {
	msg := "collection failed"
	if err != nil {
		msg = err.Error()
	}
	return Record{
		Protocol:  protocol.Unknown,
		Resources: []ResourceSample{},
		Timestamp: now.UTC().Format(TimestampLayout),
		Error:     msg,
	}
}

// Collector produces a Record for the page load observed by Source once that
// load has completed.
type Collector struct {
	Source timing.Source
	Settle time.Duration    // delay after load-complete (0 means DefaultSettle)
	Now    func() time.Time // clock override for tests
	Logger *slog.Logger
}

// CollectAfterLoad waits for the load-complete signal, lets late entries
// settle, and derives the record. Whether the page had already loaded or not,
// it returns only after load-complete. Errors are folded into the returned
// record rather than returned.
func (c *Collector) CollectAfterLoad(ctx context.Context) (rec Record) {
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if r := recover(); r != nil {
			rec = c.fail(&CollectionError{Stage: "snapshot", Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	if c.Source == nil {
		return c.fail(&CollectionError{Stage: "source", Err: ErrNoSource})
	}

	already, err := c.Source.WaitLoad(ctx)
	if err != nil {
		return c.fail(&CollectionError{Stage: "wait", Err: err})
	}
	c.logger().Debug("load complete", "already_loaded", already)

	settle := c.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	timer := time.NewTimer(settle)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		return c.fail(&CollectionError{Stage: "settle", Err: ctx.Err()})
	}

	snap, err := c.Source.Snapshot()
	if err != nil {
		return c.fail(&CollectionError{Stage: "snapshot", Err: err})
	}
	return Collect(snap, c.now())
}

func (c *Collector) fail(err error) Record {
	c.logger().Warn("metrics collection failed", "error", err)
	return Failure(err, c.now())
}

func (c *Collector) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Collector) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func roundMs(v float64) float64 {
	if v < 0 {
		v = 0
	}
	return stats.Round(v, stats.BrowserPrecision)
}
