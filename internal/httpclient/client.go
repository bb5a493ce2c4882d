package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Mode restricts the HTTP versions a client may negotiate.
type Mode string

const (
	ModeHTTP1 Mode = "http1"
	ModeHTTP2 Mode = "http2"
	ModeAuto  Mode = "auto"
)

// Options configures a probe client.
type Options struct {
	Mode     Mode
	Timeout  time.Duration
	Insecure bool           // skip certificate verification
	RootCAs  *x509.CertPool // nil means the system pool
	// MaxConnsPerHost caps parallel connections to one origin (0 = unlimited).
	// Browsers open six per origin over HTTP/1.1.
	MaxConnsPerHost int
}

// NewTransport returns a transport that only speaks the versions allowed by
// mode. HTTP/2 over cleartext targets uses prior knowledge (h2c). Compression
// is disabled so body sizes match the bytes on the wire.
func NewTransport(opts Options) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   32,
		MaxConnsPerHost:       opts.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableCompression:    true,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.Insecure, //nolint:gosec // opt-in for self-signed benchmark servers
			RootCAs:            opts.RootCAs,
		},
	}

	protocols := new(http.Protocols)
	switch opts.Mode {
	case ModeHTTP1:
		protocols.SetHTTP1(true)
	case ModeHTTP2:
		protocols.SetHTTP2(true)
		protocols.SetUnencryptedHTTP2(true)
	case ModeAuto, "":
		protocols.SetHTTP1(true)
		protocols.SetHTTP2(true)
		transport.ForceAttemptHTTP2 = true
	default:
		return nil, fmt.Errorf("unsupported client mode %q", opts.Mode)
	}
	transport.Protocols = protocols

	return transport, nil
}

// NewClient builds a client with a fresh transport, so every client starts
// from cold connections.
func NewClient(opts Options) (*http.Client, error) {
	timeout := opts.Timeout
	if timeout < 0 {
		timeout = 0
	}

	transport, err := NewTransport(opts)
	if err != nil {
		return nil, err
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}

// NegotiatedProtocol reports the ALPN id of the connection that served resp,
// e.g. "h2" or "http/1.1".
func NegotiatedProtocol(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	if resp.TLS != nil && resp.TLS.NegotiatedProtocol != "" {
		return resp.TLS.NegotiatedProtocol
	}
	switch resp.ProtoMajor {
	case 2:
		return "h2"
	case 3:
		return "h3"
	case 1:
		return fmt.Sprintf("http/1.%d", resp.ProtoMinor)
	default:
		return ""
	}
}
