// Package requestid assigns every request a correlation ID. An inbound
// X-Request-ID is honored so IDs survive proxy hops; otherwise a fresh one is
// generated. The ID is echoed back on the response and stored in the context
// for log correlation.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"factgate/pkg/requestcontext"
)

// Header is the request ID header read from requests and set on responses.
const Header = "X-Request-ID"

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
