// Package timing models the navigation and resource timing samples that a
// page load exposes, independent of where they were captured (a HAR archive,
// a live probe, or a test fixture).
package timing

import "context"

// NavigationEntry is the single timing record describing the main document load.
// All timestamps are milliseconds relative to the start of the navigation.
type NavigationEntry struct {
	Name                     string
	FetchStart               float64
	RequestStart             float64
	ResponseStart            float64
	DOMContentLoadedEventEnd float64
	LoadEventEnd             float64
	TransferSize             int64
	NextHopProtocol          string
}

// ResourceEntry is one timing record per sub-resource fetched during the page lifecycle.
type ResourceEntry struct {
	Name            string
	InitiatorType   string
	StartTime       float64
	Duration        float64
	RequestStart    float64
	ResponseStart   float64
	TransferSize    int64
	EncodedBodySize int64
	NextHopProtocol string
}

// Size returns the bytes attributed to the resource: the transfer size when
// reported, otherwise the encoded body size. Cached and opaque cross-origin
// responses report a zero transfer size.
func (r ResourceEntry) Size() int64 {
	if r.TransferSize > 0 {
		return r.TransferSize
	}
	if r.EncodedBodySize > 0 {
		return r.EncodedBodySize
	}
	return 0
}

// Navigation holds the navigation entry of a snapshot, or records that the
// platform exposed none.
type Navigation struct {
	entry   NavigationEntry
	present bool
}

// PresentNavigation wraps an observed navigation entry.
func PresentNavigation(e NavigationEntry) Navigation {
	return Navigation{entry: e, present: true}
}

// AbsentNavigation reports that no navigation entry was available.
func AbsentNavigation() Navigation {
	return Navigation{}
}

// Entry returns the navigation entry and whether one was observed.
func (n Navigation) Entry() (NavigationEntry, bool) {
	return n.entry, n.present
}

// Present reports whether a navigation entry was observed.
func (n Navigation) Present() bool { return n.present }

// Snapshot is the set of timing samples for one page load.
type Snapshot struct {
	Navigation Navigation
	Resources  []ResourceEntry
}

// Source exposes the timing samples of a page load and its load lifecycle.
type Source interface {
	// WaitLoad blocks until the load-complete signal has fired. alreadyLoaded
	// reports whether the signal had fired before the call.
	WaitLoad(ctx context.Context) (alreadyLoaded bool, err error)
	// Snapshot returns the timing samples recorded so far.
	Snapshot() (Snapshot, error)
}

// StaticSource is a Source whose page has already finished loading.
type StaticSource struct {
	Snap Snapshot
	Err  error
}

func (s StaticSource) WaitLoad(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (s StaticSource) Snapshot() (Snapshot, error) {
	if s.Err != nil {
		return Snapshot{}, s.Err
	}
	return s.Snap, nil
}
