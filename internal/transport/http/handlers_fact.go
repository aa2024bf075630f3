package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"factgate/internal/fact"
	"factgate/pkg/apperrors"
	"factgate/pkg/domain"
	"factgate/pkg/platform/httputil"
	"factgate/pkg/requestcontext"
)

// FactService defines the fact operations the transport depends on.
type FactService interface {
	Ingest(ctx context.Context, req fact.IngestRequest) (*fact.Fact, error)
	GetFact(ctx context.Context, id domain.FactID) (*fact.Fact, error)
}

// FactHandler wires fact endpoints to the fact service.
type FactHandler struct {
	service FactService
	logger  *slog.Logger
}

// NewFactHandler constructs a fact handler with its dependencies.
func NewFactHandler(service FactService, logger *slog.Logger) *FactHandler {
	return &FactHandler{service: service, logger: logger}
}

// Register mounts fact endpoints on the router.
func (h *FactHandler) Register(r chi.Router) {
	r.Post("/fact", h.HandleIngest)
	r.Get("/fact/{factID}", h.HandleGetFact)
}

// ingestRequest is the wire shape of a fact submission.
type ingestRequest struct {
	Type          string                 `json:"type"`
	Value         string                 `json:"value"`
	Bindings      []bindingRequest       `json:"bindings,omitempty"`
	InReferenceTo *domain.FactID         `json:"inReferenceTo,omitempty"`
	AccessMode    *string                `json:"accessMode,omitempty"`
	Organization  *domain.OrganizationID `json:"organization,omitempty"`
	Origin        *domain.OriginID       `json:"origin,omitempty"`
	Confidence    *float64               `json:"confidence,omitempty"`
	Comment       string                 `json:"comment,omitempty"`
	ACL           []domain.SubjectID     `json:"acl,omitempty"`
}

type bindingRequest struct {
	ObjectID  domain.ObjectID `json:"objectId"`
	Direction string          `json:"direction"`
}

// toDomain validates the wire request and builds the service request.
func (req ingestRequest) toDomain() (fact.IngestRequest, error) {
	out := fact.IngestRequest{
		Type:           req.Type,
		Value:          req.Value,
		InReferenceTo:  req.InReferenceTo,
		OrganizationID: req.Organization,
		OriginID:       req.Origin,
		Confidence:     req.Confidence,
		Comment:        req.Comment,
		ACL:            req.ACL,
	}
	if req.Type == "" {
		return out, apperrors.InvalidArgument("type", "fact.type.not.exist")
	}
	if req.AccessMode != nil {
		mode, err := domain.ParseAccessMode(*req.AccessMode)
		if err != nil {
			return out, apperrors.InvalidArgument("accessMode", "access.mode.not.exist")
		}
		out.AccessMode = &mode
	}
	for _, b := range req.Bindings {
		direction, err := fact.ParseDirection(b.Direction)
		if err != nil {
			return out, apperrors.InvalidArgument("bindings", "direction.not.exist")
		}
		out.Bindings = append(out.Bindings, fact.Binding{ObjectID: b.ObjectID, Direction: direction})
	}
	return out, nil
}

// HandleIngest handles POST /v1/fact requests.
func (h *FactHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	wire, ok := httputil.Decode[ingestRequest](w, r)
	if !ok {
		return
	}

	req, err := wire.toDomain()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Ingest(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "fact ingestion failed",
			"request_id", requestID,
			"fact_type", wire.Type,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "fact ingested",
		"request_id", requestID,
		"fact_id", result.ID,
		"fact_type", result.Type.Name,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, result)
}

// HandleGetFact handles GET /v1/fact/{factID} requests.
func (h *FactHandler) HandleGetFact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := chi.URLParam(r, "factID")
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.WriteError(w, apperrors.InvalidArgument("id", "fact.id.not.valid"))
		return
	}

	result, err := h.service.GetFact(ctx, domain.FactID(id))
	if err != nil {
		h.logger.WarnContext(ctx, "fact retrieval failed",
			"request_id", requestcontext.RequestID(ctx),
			"fact_id", raw,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
