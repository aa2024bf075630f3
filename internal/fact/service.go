package fact

//go:generate mockgen -source=service.go -destination=mocks/resolver.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"factgate/internal/access"
	"factgate/internal/fact/metrics"
	"factgate/internal/origin"
	"factgate/internal/policy"
	"factgate/internal/security"
	"factgate/internal/trigger"
	"factgate/internal/validators"
	"factgate/pkg/apperrors"
	"factgate/pkg/domain"
	"factgate/pkg/platform/sentinel"
	pstrings "factgate/pkg/platform/strings"
	"factgate/pkg/requestcontext"
)

// Function names checked before fact operations.
const (
	FunctionAddFact   = "addFact"
	FunctionViewFacts = "viewFacts"
)

// OriginResolver supplies the origin and organization for a submission.
type OriginResolver interface {
	ResolveOrigin(ctx context.Context, providedID *domain.OriginID) (*origin.Origin, error)
	ResolveOrganization(ctx context.Context, providedID *domain.OrganizationID, fallback *origin.Origin) (*access.Organization, error)
}

// IngestRequest is one fact submission.
type IngestRequest struct {
	Type           string
	Value          string
	Bindings       []Binding
	InReferenceTo  *domain.FactID
	AccessMode     *domain.AccessMode
	OrganizationID *domain.OrganizationID
	OriginID       *domain.OriginID
	Confidence     *float64
	Comment        string
	ACL            []domain.SubjectID
}

// Service runs the ingestion pipeline. It orchestrates validation,
// resolution, dedup and commit; policy lives in the collaborators.
type Service struct {
	store      Store
	types      TypeRegistry
	validators *validators.Factory
	origins    OriginResolver
	publisher  trigger.Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger for delivery warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService wires the pipeline from its collaborators.
func NewService(store Store, types TypeRegistry, factory *validators.Factory, origins OriginResolver, publisher trigger.Publisher, opts ...Option) *Service {
	s := &Service{
		store:      store,
		types:      types,
		validators: factory,
		origins:    origins,
		publisher:  publisher,
		logger:     slog.Default(),
		tracer:     otel.Tracer("factgate/fact"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest validates and commits one fact submission.
//
// An existing record with the same logical identity that the caller may read
// turns the submission into a refresh: the comment and ACL grants attach to
// the existing record and its own fields stay authoritative. Otherwise the
// candidate commits through the create path. Either way exactly one
// FactAdded event is published for the persisted result.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*Fact, error) {
	gw, err := security.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := gw.CheckPermission(FunctionAddFact); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "fact.Ingest",
		trace.WithAttributes(attribute.String("fact.type", req.Type)))
	defer span.End()
	defer s.metrics.ObserveIngest(time.Now())

	def, err := s.typeDefinition(ctx, req)
	if err != nil {
		return nil, err
	}

	referenced, err := s.referencedFact(ctx, gw, req.InReferenceTo)
	if err != nil {
		return nil, err
	}

	originEntity, err := s.origins.ResolveOrigin(ctx, req.OriginID)
	if err != nil {
		return nil, err
	}
	organization, err := s.origins.ResolveOrganization(ctx, req.OrganizationID, originEntity)
	if err != nil {
		return nil, err
	}

	mode, err := s.effectiveAccessMode(referenced, req.AccessMode)
	if err != nil {
		return nil, err
	}

	candidate := s.buildCandidate(gw, req, def, originEntity, organization, mode)

	result, outcome, err := s.commit(ctx, gw, candidate, req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("fact.outcome", outcome))
	s.metrics.IncIngested(outcome)

	external := Convert(result)
	s.publishFactAdded(ctx, result, external)
	return external, nil
}

func (s *Service) typeDefinition(ctx context.Context, req IngestRequest) (*TypeDefinition, error) {
	def, err := s.types.GetByName(ctx, req.Type)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, apperrors.InvalidArgument("type", "fact.type.not.exist")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "resolve fact type")
	}

	validator, err := s.validators.Get(def.ValidatorName, def.ValidatorParameter)
	if err != nil {
		return nil, err
	}
	if !validator.Validate(req.Value) {
		return nil, apperrors.InvalidArgument("value", "fact.not.valid")
	}
	return def, nil
}

// referencedFact loads the fact a submission derives from. The caller must
// hold read permission on it; its access mode bounds how visible the new
// fact may be.
func (s *Service) referencedFact(ctx context.Context, gw *security.Gateway, id *domain.FactID) (*Record, error) {
	if id == nil {
		return nil, nil
	}
	referenced, err := s.store.GetByID(ctx, *id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, apperrors.InvalidArgument("inReferenceTo", "fact.not.exist")
	}
	if err != nil {
		return nil, err
	}
	if err := gw.CheckFactReadPermission(referenced.AccessView()); err != nil {
		return nil, err
	}
	return referenced, nil
}

func (s *Service) effectiveAccessMode(referenced *Record, requested *domain.AccessMode) (domain.AccessMode, error) {
	var referencedMode *domain.AccessMode
	if referenced != nil {
		referencedMode = &referenced.AccessMode
	}
	mode, err := policy.ResolveAccessMode(referencedMode, requested)
	if err != nil {
		return "", err
	}
	if mode == nil {
		return domain.AccessModeRoleBased, nil
	}
	return *mode, nil
}

func (s *Service) buildCandidate(gw *security.Gateway, req IngestRequest, def *TypeDefinition, originEntity *origin.Origin, organization *access.Organization, mode domain.AccessMode) *Record {
	confidence := def.DefaultConfidence
	if confidence == 0 {
		confidence = 1.0
	}
	if req.Confidence != nil {
		confidence = *req.Confidence
	}

	candidate := &Record{
		ID:            domain.NewFactID(),
		TypeID:        def.ID,
		TypeName:      def.Name,
		Value:         req.Value,
		Bindings:      req.Bindings,
		InReferenceTo: req.InReferenceTo,
		AccessMode:    mode,
		OriginID:      originEntity.ID,
		AddedByID:     gw.CurrentSubjectID(),
		Trust:         originEntity.Trust,
		Confidence:    confidence,
	}
	if organization != nil {
		candidate.OrganizationID = organization.ID
	}
	return candidate
}

// commit is the dedup-then-merge step. It holds no lock across the
// read-then-write sequence; the store's Create contract arbitrates the race
// between concurrent identical submissions.
func (s *Service) commit(ctx context.Context, gw *security.Gateway, candidate *Record, req IngestRequest) (*Record, string, error) {
	now := requestcontext.Now(ctx).UTC()
	for existing, err := range s.store.RetrieveExisting(ctx, candidate) {
		if err != nil {
			return nil, "", err
		}
		if !gw.HasFactReadPermission(existing.AccessView()) {
			continue
		}
		attachSubmission(existing, gw.CurrentSubjectID(), req.Comment, req.ACL, now)
		result, err := s.store.Refresh(ctx, existing)
		if err != nil {
			return nil, "", err
		}
		return result, "refreshed", nil
	}

	candidate.Timestamp = now
	candidate.LastSeen = now
	attachSubmission(candidate, gw.CurrentSubjectID(), req.Comment, req.ACL, now)
	result, err := s.store.Create(ctx, candidate)
	if err != nil {
		return nil, "", err
	}
	if result.ID != candidate.ID {
		// Create collided with a record dedup did not surface as readable:
		// either a concurrent identical writer won, or the only match was one
		// the caller may not read. Fail closed on the latter; on the former,
		// merge this submission into the winner so its comment and grants are
		// not lost.
		if err := gw.CheckFactReadPermission(result.AccessView()); err != nil {
			return nil, "", err
		}
		attachSubmission(result, gw.CurrentSubjectID(), req.Comment, req.ACL, now)
		refreshed, err := s.store.Refresh(ctx, result)
		if err != nil {
			return nil, "", err
		}
		return refreshed, "refreshed", nil
	}
	return result, "created", nil
}

// attachSubmission adds this submission's comment and ACL grants to the
// record, skipping duplicates.
func attachSubmission(record *Record, author domain.SubjectID, comment string, acl []domain.SubjectID, now time.Time) {
	if comment != "" && !hasComment(record.Comments, comment) {
		record.Comments = append(record.Comments, Comment{
			ID:        uuid.New(),
			AuthorID:  author,
			Text:      comment,
			Timestamp: now,
		})
	}
	if len(acl) > 0 {
		record.ACL = pstrings.Dedupe(append(record.ACL, acl...))
	}
}

func hasComment(comments []Comment, text string) bool {
	for _, c := range comments {
		if c.Text == text {
			return true
		}
	}
	return false
}

func (s *Service) publishFactAdded(ctx context.Context, result *Record, external *Fact) {
	event := trigger.NewEvent(trigger.FactAdded, result.OrganizationID, result.AccessMode).
		WithParameter(trigger.ParamAddedFact, external)
	if err := s.publisher.Publish(ctx, event); err != nil {
		// Trigger delivery is fire and forget; a transport fault never fails
		// the ingestion that caused it.
		s.logger.WarnContext(ctx, "trigger event not published",
			"event", trigger.FactAdded, "fact_id", result.ID, "error", err)
	}
}

// GetFact returns the external representation of one fact, after function
// and entity-level read checks.
func (s *Service) GetFact(ctx context.Context, id domain.FactID) (*Fact, error) {
	gw, err := security.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := gw.CheckPermission(FunctionViewFacts); err != nil {
		return nil, err
	}
	defer s.metrics.ObserveRetrieve(time.Now())

	record, err := s.store.GetByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "fact %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	if err := gw.CheckFactReadPermission(record.AccessView()); err != nil {
		return nil, err
	}
	return Convert(record), nil
}
