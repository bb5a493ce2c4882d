// Command asset_server serves the scenario pages and assets for local
// protocol comparisons.
//
//	go run ./scripts/testservers/asset_server -mode tls -port 3000 -cert cert.pem -key key.pem
//	go run ./scripts/testservers/asset_server -mode h2c -port 3001
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/torosent/protobench/internal/scenario"
)

type serverMode string

const (
	modeHTTP1 serverMode = "http1"
	modeH2C   serverMode = "h2c"
	modeTLS   serverMode = "tls"
)

func main() {
	mode := flag.String("mode", string(modeTLS), "Server mode: http1, h2c, tls")
	port := flag.Int("port", 3000, "Listening port")
	cert := flag.String("cert", "", "TLS certificate file (tls mode)")
	key := flag.String("key", "", "TLS key file (tls mode)")
	delay := flag.Duration("delay", 0, "Artificial delay added to every response")
	flag.Parse()

	if *port <= 0 {
		log.Fatalf("port must be > 0")
	}

	handler := withDelay(scenario.Handler(), *delay)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           logRequests(handler),
		ReadHeaderTimeout: 10 * time.Second,
		Protocols:         new(http.Protocols),
	}

	switch serverMode(*mode) {
	case modeHTTP1:
		server.Protocols.SetHTTP1(true)
		log.Printf("scenario server (HTTP/1.1 cleartext) listening on %s", server.Addr)
		log.Fatal(server.ListenAndServe())
	case modeH2C:
		server.Protocols.SetHTTP1(true)
		server.Protocols.SetUnencryptedHTTP2(true)
		log.Printf("scenario server (h2c) listening on %s", server.Addr)
		log.Fatal(server.ListenAndServe())
	case modeTLS:
		if strings.TrimSpace(*cert) == "" || strings.TrimSpace(*key) == "" {
			log.Fatalf("cert and key are required for tls mode")
		}
		server.Protocols.SetHTTP1(true)
		server.Protocols.SetHTTP2(true)
		log.Printf("scenario server (TLS, h2 + http/1.1) listening on %s", server.Addr)
		log.Fatal(server.ListenAndServeTLS(*cert, *key))
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

func withDelay(next http.Handler, delay time.Duration) http.Handler {
	if delay <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		next.ServeHTTP(w, r)
	})
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/test/") {
			log.Printf("%s %s %s", r.Proto, r.Method, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}
