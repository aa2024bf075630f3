// Package metadata captures client network metadata (IP, User-Agent) early
// in the middleware chain so handlers and audit logs can reach it without
// touching the request.
package metadata

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type contextKeyClientIP struct{}
type contextKeyUserAgent struct{}

// ClientMetadata stores the resolved client IP and User-Agent in the
// context. Apply before any middleware that logs.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = context.WithValue(ctx, contextKeyClientIP{}, clientIP(r))
		ctx = context.WithValue(ctx, contextKeyUserAgent{}, r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(contextKeyClientIP{}).(string)
	return ip
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	ua, _ := ctx.Value(contextKeyUserAgent{}).(string)
	return ua
}

// WithClientMetadata injects client metadata into a context. Intended for
// service tests that skip the HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, contextKeyClientIP{}, clientIP)
	return context.WithValue(ctx, contextKeyUserAgent{}, userAgent)
}

// clientIP resolves the original client address, trusting proxy headers
// when present. X-Forwarded-For may list several hops; the first entry is
// the client.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(ip)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
