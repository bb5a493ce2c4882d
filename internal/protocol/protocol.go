// Package protocol normalizes the transport protocol tokens surfaced by timing
// data (ALPN ids such as "h2", "h3", "http/1.1") into display labels.
package protocol

import (
	"strings"

	"github.com/torosent/protobench/internal/timing"
)

const (
	HTTP1   = "HTTP/1.1"
	HTTP2   = "HTTP/2"
	HTTP3   = "HTTP/3"
	Unknown = "unknown"
)

// LogNames lists the protocol names used for offline trial logs, in report order.
var LogNames = []string{"http1", "http2", "http3"}

// Classify maps a raw protocol token to a label. Unrecognized tokens are
// returned lower-cased; an empty token yields Unknown.
func Classify(token string) string {
	p := strings.ToLower(strings.TrimSpace(token))
	if p == "" {
		return Unknown
	}
	switch {
	case strings.Contains(p, "h3"), strings.Contains(p, "quic"):
		return HTTP3
	case strings.Contains(p, "h2"):
		return HTTP2
	case strings.Contains(p, "http/1"):
		return HTTP1
	}
	return p
}

// Detect classifies the page-level protocol, preferring the navigation entry
// and falling back to the first resource entry.
func Detect(nav timing.Navigation, resources []timing.ResourceEntry) string {
	if entry, ok := nav.Entry(); ok && strings.TrimSpace(entry.NextHopProtocol) != "" {
		return Classify(entry.NextHopProtocol)
	}
	if len(resources) > 0 && strings.TrimSpace(resources[0].NextHopProtocol) != "" {
		return Classify(resources[0].NextHopProtocol)
	}
	return Unknown
}

// DetectFrom reads a snapshot from src and classifies it. Any failure while
// reading the source yields Unknown.
func DetectFrom(src timing.Source) (label string) {
	defer func() {
		if recover() != nil {
			label = Unknown
		}
	}()
	if src == nil {
		return Unknown
	}
	snap, err := src.Snapshot()
	if err != nil {
		return Unknown
	}
	return Detect(snap.Navigation, snap.Resources)
}
