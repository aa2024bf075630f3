package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"factgate/pkg/apperrors"
	"factgate/pkg/platform/httputil"
	"factgate/pkg/platform/middleware/auth"
	"factgate/pkg/requestcontext"
)

// TokenRevoker invalidates a token ID for the given lifetime.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// TokenHandler serves token lifecycle endpoints.
type TokenHandler struct {
	revocations TokenRevoker
	logger      *slog.Logger
}

func NewTokenHandler(revocations TokenRevoker, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{revocations: revocations, logger: logger}
}

func (h *TokenHandler) Register(r chi.Router) {
	r.Post("/token/revoke", h.HandleRevoke)
}

// HandleRevoke revokes the caller's own token. The revocation entry lives
// exactly as long as the token would have, so the list stays bounded.
func (h *TokenHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := auth.TokenIdentity(ctx)
	if !ok || identity.JTI == "" {
		httputil.WriteError(w, apperrors.New(apperrors.CodeAuthenticationFailed, "no token bound to request"))
		return
	}

	ttl := time.Until(identity.ExpiresAt)
	if identity.ExpiresAt.IsZero() || ttl <= 0 {
		ttl = time.Minute
	}
	if err := h.revocations.Revoke(ctx, identity.JTI, ttl); err != nil {
		h.logger.ErrorContext(ctx, "token revocation failed",
			"error", err,
			"jti", identity.JTI,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, apperrors.Wrap(err, apperrors.CodeInternal, "revoke token"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
