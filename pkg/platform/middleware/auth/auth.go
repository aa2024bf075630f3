// Package auth provides the HTTP middleware that turns a bearer token into a
// bound security gateway. Every request behind RequireAuth carries an
// authenticated identity in its context; requests without one never reach the
// handlers.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"factgate/internal/access"
	"factgate/internal/jwtauth"
	"factgate/internal/security"
	"factgate/pkg/apperrors"
	"factgate/pkg/platform/httputil"
	"factgate/pkg/platform/middleware/metadata"
	"factgate/pkg/requestcontext"
)

// TokenValidator validates a raw bearer token and returns the caller identity
// it carries.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwtauth.Identity, error)
}

// RevocationChecker reports whether a token ID has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// SnapshotSource yields the access snapshot the request's gateway is pinned
// to. A request sees exactly one snapshot for its whole lifetime.
type SnapshotSource interface {
	Current() *access.Snapshot
}

type identityKey struct{}

// TokenIdentity returns the validated token identity for the request, for
// handlers that operate on the token itself rather than the subject.
func TokenIdentity(ctx context.Context) (*jwtauth.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*jwtauth.Identity)
	return identity, ok
}

// RequireAuth authenticates the request and binds a security gateway into the
// request context. The revocation checker is optional; when nil, tokens are
// accepted on signature and expiry alone.
func RequireAuth(validator TokenValidator, revocations RevocationChecker, snapshots SnapshotSource, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing bearer token",
					"request_id", requestcontext.RequestID(ctx),
					"client_ip", metadata.ClientIP(ctx),
				)
				httputil.WriteError(w, apperrors.New(apperrors.CodeAuthenticationFailed, "missing or invalid Authorization header"))
				return
			}

			identity, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
					"client_ip", metadata.ClientIP(ctx),
				)
				httputil.WriteError(w, apperrors.New(apperrors.CodeAuthenticationFailed, "invalid or expired token"))
				return
			}

			if revocations != nil {
				if identity.JTI == "" {
					logger.WarnContext(ctx, "unauthorized access - token missing jti",
						"request_id", requestcontext.RequestID(ctx),
					)
					httputil.WriteError(w, apperrors.New(apperrors.CodeAuthenticationFailed, "invalid or expired token"))
					return
				}
				revoked, err := revocations.IsRevoked(ctx, identity.JTI)
				if err != nil {
					logger.ErrorContext(ctx, "revocation check failed",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
					httputil.WriteError(w, apperrors.New(apperrors.CodeInternal, "failed to validate token"))
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - token revoked",
						"jti", identity.JTI,
						"request_id", requestcontext.RequestID(ctx),
					)
					httputil.WriteError(w, apperrors.New(apperrors.CodeAuthenticationFailed, "token has been revoked"))
					return
				}
			}

			gw := security.NewGateway(security.Identity{
				SubjectID:      identity.SubjectID,
				OrganizationID: identity.OrganizationID,
			}, snapshots.Current())

			bound, err := security.Bind(context.WithValue(ctx, identityKey{}, identity), gw)
			if err != nil {
				logger.ErrorContext(ctx, "failed to bind security gateway",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(bound))
		})
	}
}
