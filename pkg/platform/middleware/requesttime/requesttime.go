// Package requesttime pins a single "now" to each request so that every
// timestamp taken while serving it (fact timestamps, origin creation, logs)
// agrees.
package requesttime

import (
	"net/http"
	"time"

	"factgate/pkg/requestcontext"
)

// Middleware captures the wall clock at the start of the request and stores
// it in the context. Handlers read it back with requestcontext.Now.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
