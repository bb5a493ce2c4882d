// Package httpclient builds the HTTP clients the probe and the trial capture
// use to load scenario pages.
//
// A client is pinned to a [Mode]: HTTP/1.1 only, HTTP/2 only (h2 over TLS,
// h2c prior knowledge over cleartext), or automatic ALPN negotiation:
//
//	client, err := httpclient.NewClient(httpclient.Options{
//		Mode:    httpclient.ModeHTTP2,
//		Timeout: 30 * time.Second,
//	})
//
// [NegotiatedProtocol] maps a response back to the ALPN id a browser would
// report as nextHopProtocol.
package httpclient
