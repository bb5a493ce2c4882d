package har

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/torosent/protobench/internal/timing"
)

// ErrNoEntries is returned when the selected page has no usable entries.
var ErrNoEntries = errors.New("HAR page has no entries")

// ToSnapshot converts one page of an archive into the timing samples a
// browser would report for it. The page's document entry becomes the
// navigation entry; every other entry becomes a resource entry. Offsets are
// relative to the page start.
func ToSnapshot(har *HAR, opts SnapshotOptions) (timing.Snapshot, error) {
	if har == nil || har.Log == nil {
		return timing.Snapshot{}, fmt.Errorf("HAR is nil or has nil Log")
	}

	page, err := selectPage(har.Log.Pages, opts.PageID)
	if err != nil {
		return timing.Snapshot{}, err
	}

	var entries []*Entry
	for _, entry := range har.Log.Entries {
		if entry == nil || entry.Request == nil {
			continue
		}
		if page != nil && entry.PageRef != "" && entry.PageRef != page.ID {
			continue
		}
		if !shouldIncludeEntry(entry, opts) {
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return timing.Snapshot{}, ErrNoEntries
	}

	origin := pageOrigin(page, entries)
	navIdx := documentIndex(entries)
	nav := entries[navIdx]

	navEntry := timing.NavigationEntry{
		Name:            nav.Request.URL,
		FetchStart:      offset(origin, nav),
		TransferSize:    transferSize(nav),
		NextHopProtocol: alpnToken(nav),
	}
	navEntry.RequestStart, navEntry.ResponseStart = requestResponseStart(navEntry.FetchStart, nav.Timings)

	end := navEntry.FetchStart + positive(nav.Time)
	navEntry.DOMContentLoadedEventEnd = end
	navEntry.LoadEventEnd = end
	if page != nil && page.PageTimings != nil {
		if page.PageTimings.OnContentLoad > 0 {
			navEntry.DOMContentLoadedEventEnd = page.PageTimings.OnContentLoad
		}
		if page.PageTimings.OnLoad > 0 {
			navEntry.LoadEventEnd = page.PageTimings.OnLoad
		}
	}

	snap := timing.Snapshot{
		Navigation: timing.PresentNavigation(navEntry),
		Resources:  make([]timing.ResourceEntry, 0, len(entries)-1),
	}
	for i, entry := range entries {
		if i == navIdx {
			continue
		}
		start := offset(origin, entry)
		res := timing.ResourceEntry{
			Name:            entry.Request.URL,
			InitiatorType:   initiatorType(entry),
			StartTime:       start,
			Duration:        positive(entry.Time),
			TransferSize:    transferSize(entry),
			EncodedBodySize: encodedBodySize(entry),
			NextHopProtocol: alpnToken(entry),
		}
		res.RequestStart, res.ResponseStart = requestResponseStart(start, entry.Timings)
		snap.Resources = append(snap.Resources, res)
	}
	return snap, nil
}

func selectPage(pages []*Page, id string) (*Page, error) {
	if id == "" {
		for _, p := range pages {
			if p != nil {
				return p, nil
			}
		}
		return nil, nil
	}
	for _, p := range pages {
		if p != nil && p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("HAR page %q not found", id)
}

// pageOrigin is the page start, or the earliest entry start for archives
// without pages.
func pageOrigin(page *Page, entries []*Entry) time.Time {
	if page != nil {
		if t, err := parseTime(page.StartedDateTime); err == nil {
			return t
		}
	}
	var origin time.Time
	for _, e := range entries {
		t, err := parseTime(e.StartedDateTime)
		if err != nil {
			continue
		}
		if origin.IsZero() || t.Before(origin) {
			origin = t
		}
	}
	return origin
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func offset(origin time.Time, entry *Entry) float64 {
	if origin.IsZero() {
		return 0
	}
	t, err := parseTime(entry.StartedDateTime)
	if err != nil {
		return 0
	}
	return positive(float64(t.Sub(origin)) / float64(time.Millisecond))
}

func documentIndex(entries []*Entry) int {
	for i, e := range entries {
		if strings.EqualFold(e.ResourceType, "document") {
			return i
		}
	}
	return 0
}

// requestResponseStart derives request and response start offsets from the
// entry's phase timings. SSL time is already part of connect.
func requestResponseStart(start float64, t *Timings) (float64, float64) {
	if t == nil {
		return start, start
	}
	req := start + positive(t.Blocked) + positive(t.DNS) + positive(t.Connect)
	return req, req + positive(t.Send) + positive(t.Wait)
}

func transferSize(e *Entry) int64 {
	if e.Response == nil {
		return 0
	}
	if e.Response.TransferSize > 0 {
		return e.Response.TransferSize
	}
	var n int64
	if e.Response.HeadersSize > 0 {
		n += int64(e.Response.HeadersSize)
	}
	if e.Response.BodySize > 0 {
		n += int64(e.Response.BodySize)
	}
	return n
}

func encodedBodySize(e *Entry) int64 {
	if e.Response == nil {
		return 0
	}
	if e.Response.BodySize > 0 {
		return int64(e.Response.BodySize)
	}
	if e.Response.Content != nil && e.Response.Content.Size > 0 {
		return int64(e.Response.Content.Size)
	}
	return 0
}

// alpnToken maps the archive's HTTP version string to the ALPN id a browser
// reports as nextHopProtocol.
func alpnToken(e *Entry) string {
	v := ""
	if e.Response != nil {
		v = e.Response.HTTPVersion
	}
	if v == "" && e.Request != nil {
		v = e.Request.HTTPVersion
	}
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "http/2", "http/2.0", "h2":
		return "h2"
	case "http/3", "http/3.0", "h3":
		return "h3"
	default:
		return v
	}
}

var initiatorTypes = map[string]string{
	"stylesheet": "link",
	"script":     "script",
	"image":      "img",
	"font":       "css",
	"fetch":      "fetch",
	"xhr":        "xmlhttprequest",
}

func initiatorType(e *Entry) string {
	if t, ok := initiatorTypes[strings.ToLower(e.ResourceType)]; ok {
		return t
	}
	return "other"
}

func positive(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// shouldIncludeEntry applies the host filters.
func shouldIncludeEntry(entry *Entry, opts SnapshotOptions) bool {
	if len(opts.IncludeHosts) == 0 && len(opts.ExcludeHosts) == 0 {
		return true
	}
	parsedURL, err := url.Parse(entry.Request.URL)
	if err != nil {
		return false
	}

	// Filter by include hosts (if specified)
	if len(opts.IncludeHosts) > 0 {
		found := false
		for _, host := range opts.IncludeHosts {
			if parsedURL.Host == host {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	// Filter by exclude hosts
	for _, host := range opts.ExcludeHosts {
		if parsedURL.Host == host {
			return false
		}
	}

	return true
}
