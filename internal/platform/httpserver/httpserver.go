package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Write and idle timeouts are generous because
// full-chain verification on the public ledger endpoint can take a while on
// long histories; slow-header clients are still cut off quickly.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
