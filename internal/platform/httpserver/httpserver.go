package httpserver

import (
	"net/http"
	"time"
)

// New builds the HTTP server. The read timeout is generous because document
// uploads arrive through multipart bodies; slow-header attacks are still cut
// off quickly.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
