package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"factgate/internal/origin"
	"factgate/pkg/apperrors"
	"factgate/pkg/domain"
	"factgate/pkg/platform/httputil"
	"factgate/pkg/requestcontext"
)

// OriginResolver defines the origin operations the transport depends on.
type OriginResolver interface {
	GetOrigin(ctx context.Context, id domain.OriginID) (*origin.Origin, error)
	GetCallerOrigin(ctx context.Context) (*origin.Origin, error)
}

// OriginHandler wires origin endpoints to the origin resolver.
type OriginHandler struct {
	resolver OriginResolver
	logger   *slog.Logger
}

// NewOriginHandler constructs an origin handler with its dependencies.
func NewOriginHandler(resolver OriginResolver, logger *slog.Logger) *OriginHandler {
	return &OriginHandler{resolver: resolver, logger: logger}
}

// Register mounts origin endpoints on the router.
func (h *OriginHandler) Register(r chi.Router) {
	r.Get("/origin/{originID}", h.HandleGetOrigin)
	r.Get("/origin", h.HandleGetCallerOrigin)
}

// originResponse is the wire shape of an origin.
type originResponse struct {
	ID           domain.OriginID        `json:"id"`
	Namespace    domain.NamespaceID     `json:"namespace"`
	Organization *domain.OrganizationID `json:"organization,omitempty"`
	Name         string                 `json:"name"`
	Trust        float64                `json:"trust"`
	Type         string                 `json:"type"`
}

func toOriginResponse(o *origin.Origin) originResponse {
	resp := originResponse{
		ID:        o.ID,
		Namespace: o.NamespaceID,
		Name:      o.Name,
		Trust:     o.Trust,
		Type:      string(o.Type),
	}
	if !o.OrganizationID.IsNil() {
		org := o.OrganizationID
		resp.Organization = &org
	}
	return resp
}

// HandleGetOrigin handles GET /v1/origin/{originID} requests.
func (h *OriginHandler) HandleGetOrigin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := chi.URLParam(r, "originID")
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.WriteError(w, apperrors.InvalidArgument("id", "origin.id.not.valid"))
		return
	}

	resolved, err := h.resolver.GetOrigin(ctx, domain.OriginID(id))
	if err != nil {
		h.logger.WarnContext(ctx, "origin resolution failed",
			"request_id", requestcontext.RequestID(ctx),
			"origin_id", raw,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toOriginResponse(resolved))
}

// HandleGetCallerOrigin handles GET /v1/origin requests. It resolves, or
// lazily creates, the caller's own origin.
func (h *OriginHandler) HandleGetCallerOrigin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resolved, err := h.resolver.GetCallerOrigin(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "caller origin resolution failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toOriginResponse(resolved))
}
