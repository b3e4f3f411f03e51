// Package requesttime pins a single "now" to each HTTP request. Document
// timestamps, expiry checks and audit events observed within one request
// all agree on the same instant.
package requesttime

import (
	"net/http"
	"time"

	"legaldocs/pkg/requestcontext"
)

// Middleware captures the current time when the request arrives and stores
// it in the context for requestcontext.Now.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
