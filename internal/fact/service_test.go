package fact_test

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"factgate/internal/access"
	"factgate/internal/fact"
	"factgate/internal/fact/mocks"
	"factgate/internal/origin"
	"factgate/internal/security"
	"factgate/internal/trigger"
	"factgate/internal/validators"
	"factgate/pkg/apperrors"
	"factgate/pkg/domain"
	"factgate/pkg/platform/sentinel"
)

var (
	rootOrgID = domain.OrganizationID(uuid.New())
	acmeOrgID = domain.OrganizationID(uuid.New())

	aliceID = domain.SubjectID(uuid.New())
	bobID   = domain.SubjectID(uuid.New())

	ipTypeID = domain.FactTypeID(uuid.New())
)

func ipType() *fact.TypeDefinition {
	return &fact.TypeDefinition{
		ID:                 ipTypeID,
		Name:               "ipAddress",
		ValidatorName:      validators.NameRegex,
		ValidatorParameter: `(\d{1,3}\.){3}\d{1,3}`,
	}
}

func aliceOrigin() *origin.Origin {
	return &origin.Origin{
		ID:             domain.OriginID(aliceID),
		NamespaceID:    domain.NewNamespaceID(),
		OrganizationID: acmeOrgID,
		Name:           "alice",
		Trust:          origin.DefaultUserTrust,
		Type:           origin.TypeUser,
	}
}

// seqOf wraps records in the lazy sequence shape RetrieveExisting returns.
func seqOf(records ...*fact.Record) iter.Seq2[*fact.Record, error] {
	return func(yield func(*fact.Record, error) bool) {
		for _, r := range records {
			if !yield(r, nil) {
				return
			}
		}
	}
}

type ServiceSuite struct {
	suite.Suite

	ctrl      *gomock.Controller
	store     *mocks.MockStore
	types     *mocks.MockTypeRegistry
	origins   *mocks.MockOriginResolver
	publisher *trigger.MemoryPublisher
	service   *fact.Service

	ctx context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.types = mocks.NewMockTypeRegistry(s.ctrl)
	s.origins = mocks.NewMockOriginResolver(s.ctrl)
	s.publisher = trigger.NewMemoryPublisher()
	s.service = fact.NewService(s.store, s.types, validators.NewFactory(), s.origins, s.publisher)
	s.ctx = s.bindCaller(aliceID, acmeOrgID)
}

// alice in acme holds addFact and viewFacts; bob in acme holds nothing.
func (s *ServiceSuite) bindCaller(subjectID domain.SubjectID, orgID domain.OrganizationID) context.Context {
	snapshot := access.NewBuilder().
		SetFunctions([]access.Function{{Name: "addFact"}, {Name: "viewFacts"}}).
		SetOrganizations([]access.Organization{
			{InternalID: 1, ID: rootOrgID, Name: "root", Group: true, Members: []int64{2}},
			{InternalID: 2, ID: acmeOrgID, Name: "acme"},
		}).
		SetSubjects([]access.Subject{
			{InternalID: 10, ID: aliceID, Name: "alice", OrganizationID: acmeOrgID,
				Functions: []string{"addFact", "viewFacts"}},
			{InternalID: 11, ID: bobID, Name: "bob", OrganizationID: acmeOrgID},
		}).
		Build()
	gw := security.NewGateway(security.Identity{SubjectID: subjectID, OrganizationID: orgID}, snapshot)
	ctx, err := security.Bind(context.Background(), gw)
	s.Require().NoError(err)
	return ctx
}

func (s *ServiceSuite) expectResolution() {
	s.types.EXPECT().GetByName(gomock.Any(), "ipAddress").Return(ipType(), nil)
	s.origins.EXPECT().ResolveOrigin(gomock.Any(), gomock.Nil()).Return(aliceOrigin(), nil)
	s.origins.EXPECT().ResolveOrganization(gomock.Any(), gomock.Nil(), gomock.Any()).
		Return(&access.Organization{InternalID: 2, ID: acmeOrgID, Name: "acme"}, nil)
}

func (s *ServiceSuite) TestIngestDeniedWithoutFunction() {
	ctx := s.bindCaller(bobID, acmeOrgID)

	_, err := s.service.Ingest(ctx, fact.IngestRequest{Type: "ipAddress", Value: "1.2.3.4"})
	s.Require().Error(err)
	s.True(apperrors.HasCode(err, apperrors.CodeAccessDenied))
	s.Empty(s.publisher.Events())
}

func (s *ServiceSuite) TestIngestFailsWithoutBoundGateway() {
	_, err := s.service.Ingest(context.Background(), fact.IngestRequest{Type: "ipAddress", Value: "1.2.3.4"})
	s.Require().Error(err)
	s.True(apperrors.HasCode(err, apperrors.CodeAuthenticationFailed))
}

func (s *ServiceSuite) TestIngestUnknownTypeRejected() {
	s.types.EXPECT().GetByName(gomock.Any(), "nope").Return(nil, sentinel.ErrNotFound)

	_, err := s.service.Ingest(s.ctx, fact.IngestRequest{Type: "nope", Value: "x"})
	s.Require().Error(err)
	s.True(apperrors.HasCode(err, apperrors.CodeInvalidArgument))
	s.Equal([]apperrors.ValidationError{{Property: "type", MessageTemplate: "fact.type.not.exist"}},
		apperrors.ValidationErrorsOf(err))
}

func (s *ServiceSuite) TestIngestInvalidValueHaltsBeforePersistence() {
	s.types.EXPECT().GetByName(gomock.Any(), "ipAddress").Return(ipType(), nil)

	_, err := s.service.Ingest(s.ctx, fact.IngestRequest{Type: "ipAddress", Value: "not-an-ip"})
	s.Require().Error(err)
	s.True(apperrors.HasCode(err, apperrors.CodeInvalidArgument))
	s.Equal([]apperrors.ValidationError{{Property: "value", MessageTemplate: "fact.not.valid"}},
		apperrors.ValidationErrorsOf(err))
	s.Empty(s.publisher.Events())
}

func (s *ServiceSuite) TestIngestCreatesNewFact() {
	s.expectResolution()
	s.store.EXPECT().RetrieveExisting(gomock.Any(), gomock.Any()).Return(seqOf())

	var created *fact.Record
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, record *fact.Record) (*fact.Record, error) {
			created = record.Clone()
			created.Timestamp = time.Now().UTC()
			created.LastSeen = created.Timestamp
			return created, nil
		})

	grantee := domain.SubjectID(uuid.New())
	result, err := s.service.Ingest(s.ctx, fact.IngestRequest{
		Type:    "ipAddress",
		Value:   "1.2.3.4",
		Comment: "seen in campaign",
		ACL:     []domain.SubjectID{grantee, grantee},
	})
	s.Require().NoError(err)

	s.Equal("1.2.3.4", result.Value)
	s.Equal("ipAddress", result.Type.Name)
	s.Equal(domain.AccessModeRoleBased, result.AccessMode, "no requested or referenced mode defaults to RoleBased")
	s.Require().NotNil(result.Organization)
	s.Equal(acmeOrgID, *result.Organization)
	s.Equal(domain.OriginID(aliceID), result.Origin)
	s.Equal(aliceID, result.AddedBy)
	s.InDelta(origin.DefaultUserTrust, result.Trust, 0.0001, "trust inherited from the origin")
	s.InDelta(1.0, result.Confidence, 0.0001)

	s.Require().Len(created.Comments, 1)
	s.Equal("seen in campaign", created.Comments[0].Text)
	s.Equal(aliceID, created.Comments[0].AuthorID)
	s.Equal([]domain.SubjectID{grantee}, created.ACL, "duplicate grants collapse")
}

func (s *ServiceSuite) TestIngestRefreshesPermittedExisting() {
	existing := &fact.Record{
		ID:             domain.NewFactID(),
		TypeID:         ipTypeID,
		TypeName:       "ipAddress",
		Value:          "1.2.3.4",
		AccessMode:     domain.AccessModePublic,
		OrganizationID: rootOrgID,
		OriginID:       domain.NewOriginID(),
		AddedByID:      bobID,
		Trust:          0.5,
		Confidence:     0.9,
		Comments:       []fact.Comment{{ID: uuid.New(), AuthorID: bobID, Text: "first sighting"}},
		ACL:            []domain.SubjectID{bobID},
	}

	s.expectResolution()
	s.store.EXPECT().RetrieveExisting(gomock.Any(), gomock.Any()).Return(seqOf(existing.Clone()))
	s.store.EXPECT().Refresh(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, record *fact.Record) (*fact.Record, error) {
			refreshed := record.Clone()
			refreshed.LastSeen = time.Now().UTC()
			return refreshed, nil
		})

	result, err := s.service.Ingest(s.ctx, fact.IngestRequest{
		Type:    "ipAddress",
		Value:   "1.2.3.4",
		Comment: "second sighting",
		ACL:     []domain.SubjectID{bobID, aliceID},
	})
	s.Require().NoError(err)

	// The existing record stays authoritative over the candidate's fields.
	s.Equal(existing.ID, result.ID)
	s.Equal(domain.AccessModePublic, result.AccessMode)
	s.Require().NotNil(result.Organization)
	s.Equal(rootOrgID, *result.Organization)
	s.Equal(existing.OriginID, result.Origin)
	s.InDelta(0.5, result.Trust, 0.0001)

	s.Len(result.Comments, 2)
	s.Equal([]domain.SubjectID{bobID, aliceID}, result.ACL, "existing grant not duplicated")
}

func (s *ServiceSuite) TestIngestCreatesWhenMatchNotReadable() {
	// Same logical fact, but Explicit with an ACL the caller is not on.
	hidden := &fact.Record{
		ID:         domain.NewFactID(),
		TypeID:     ipTypeID,
		TypeName:   "ipAddress",
		Value:      "1.2.3.4",
		AccessMode: domain.AccessModeExplicit,
		ACL:        []domain.SubjectID{domain.SubjectID(uuid.New())},
	}

	s.expectResolution()
	s.store.EXPECT().RetrieveExisting(gomock.Any(), gomock.Any()).Return(seqOf(hidden))
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, record *fact.Record) (*fact.Record, error) {
			return record.Clone(), nil
		})
	// No Refresh expectation: an unreadable match must never be refreshed.

	result, err := s.service.Ingest(s.ctx, fact.IngestRequest{Type: "ipAddress", Value: "1.2.3.4"})
	s.Require().NoError(err)
	s.NotEqual(hidden.ID, result.ID)
}

func (s *ServiceSuite) TestIngestEmitsFactAddedEvent() {
	s.expectResolution()
	s.store.EXPECT().RetrieveExisting(gomock.Any(), gomock.Any()).Return(seqOf())
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, record *fact.Record) (*fact.Record, error) {
			return record.Clone(), nil
		})

	result, err := s.service.Ingest(s.ctx, fact.IngestRequest{Type: "ipAddress", Value: "1.2.3.4"})
	s.Require().NoError(err)

	events := s.publisher.Events()
	s.Require().Len(events, 1)
	s.Equal(trigger.FactAdded, events[0].Name)
	s.Equal(acmeOrgID, events[0].OrganizationID)
	s.Equal(result.AccessMode, events[0].AccessMode)
	s.Equal(result, events[0].ContextParameters[trigger.ParamAddedFact])
}

func (s *ServiceSuite) TestIngestAccessModeMonotonicity() {
	referenced := &fact.Record{
		ID:         domain.NewFactID(),
		TypeID:     ipTypeID,
		TypeName:   "ipAddress",
		Value:      "9.9.9.9",
		AccessMode: domain.AccessModeExplicit,
		ACL:        []domain.SubjectID{aliceID},
	}

	s.Run("relaxing the referenced mode fails", func() {
		s.types.EXPECT().GetByName(gomock.Any(), "ipAddress").Return(ipType(), nil)
		s.store.EXPECT().GetByID(gomock.Any(), referenced.ID).Return(referenced.Clone(), nil)
		s.origins.EXPECT().ResolveOrigin(gomock.Any(), gomock.Nil()).Return(aliceOrigin(), nil)
		s.origins.EXPECT().ResolveOrganization(gomock.Any(), gomock.Nil(), gomock.Any()).
			Return(&access.Organization{InternalID: 2, ID: acmeOrgID}, nil)

		requested := domain.AccessModeRoleBased
		_, err := s.service.Ingest(s.ctx, fact.IngestRequest{
			Type:          "ipAddress",
			Value:         "1.2.3.4",
			InReferenceTo: &referenced.ID,
			AccessMode:    &requested,
		})
		s.Require().Error(err)
		s.True(apperrors.HasCode(err, apperrors.CodeInvalidArgument))
		s.Equal([]apperrors.ValidationError{{Property: "accessMode", MessageTemplate: "access.mode.too.wide"}},
			apperrors.ValidationErrorsOf(err))
	})

	s.Run("absent requested mode inherits the referenced mode", func() {
		s.types.EXPECT().GetByName(gomock.Any(), "ipAddress").Return(ipType(), nil)
		s.store.EXPECT().GetByID(gomock.Any(), referenced.ID).Return(referenced.Clone(), nil)
		s.origins.EXPECT().ResolveOrigin(gomock.Any(), gomock.Nil()).Return(aliceOrigin(), nil)
		s.origins.EXPECT().ResolveOrganization(gomock.Any(), gomock.Nil(), gomock.Any()).
			Return(&access.Organization{InternalID: 2, ID: acmeOrgID}, nil)
		s.store.EXPECT().RetrieveExisting(gomock.Any(), gomock.Any()).Return(seqOf())
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, record *fact.Record) (*fact.Record, error) {
				return record.Clone(), nil
			})

		result, err := s.service.Ingest(s.ctx, fact.IngestRequest{
			Type:          "ipAddress",
			Value:         "1.2.3.4",
			InReferenceTo: &referenced.ID,
		})
		s.Require().NoError(err)
		s.Equal(domain.AccessModeExplicit, result.AccessMode)
	})

	s.Run("unreadable referenced fact is denied", func() {
		hidden := referenced.Clone()
		hidden.ACL = []domain.SubjectID{domain.SubjectID(uuid.New())}

		s.types.EXPECT().GetByName(gomock.Any(), "ipAddress").Return(ipType(), nil)
		s.store.EXPECT().GetByID(gomock.Any(), hidden.ID).Return(hidden, nil)

		_, err := s.service.Ingest(s.ctx, fact.IngestRequest{
			Type:          "ipAddress",
			Value:         "1.2.3.4",
			InReferenceTo: &hidden.ID,
		})
		s.Require().Error(err)
		s.True(apperrors.HasCode(err, apperrors.CodeAccessDenied))
	})
}

func (s *ServiceSuite) TestGetFact() {
	record := &fact.Record{
		ID:             domain.NewFactID(),
		TypeID:         ipTypeID,
		TypeName:       "ipAddress",
		Value:          "1.2.3.4",
		AccessMode:     domain.AccessModeRoleBased,
		OrganizationID: acmeOrgID,
	}

	s.Run("returns a readable fact", func() {
		s.store.EXPECT().GetByID(gomock.Any(), record.ID).Return(record.Clone(), nil)

		got, err := s.service.GetFact(s.ctx, record.ID)
		s.Require().NoError(err)
		s.Equal(record.ID, got.ID)
		s.Equal("1.2.3.4", got.Value)
	})

	s.Run("unknown fact is not found", func() {
		missing := domain.NewFactID()
		s.store.EXPECT().GetByID(gomock.Any(), missing).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.GetFact(s.ctx, missing)
		s.Require().Error(err)
		s.True(apperrors.HasCode(err, apperrors.CodeNotFound))
	})

	s.Run("unreadable fact is denied", func() {
		hidden := record.Clone()
		hidden.AccessMode = domain.AccessModeExplicit
		hidden.ACL = []domain.SubjectID{domain.SubjectID(uuid.New())}
		s.store.EXPECT().GetByID(gomock.Any(), hidden.ID).Return(hidden, nil)

		_, err := s.service.GetFact(s.ctx, hidden.ID)
		s.Require().Error(err)
		s.True(apperrors.HasCode(err, apperrors.CodeAccessDenied))
	})

	s.Run("caller without viewFacts is denied before storage", func() {
		ctx := s.bindCaller(bobID, acmeOrgID)

		_, err := s.service.GetFact(ctx, record.ID)
		s.Require().Error(err)
		s.True(apperrors.HasCode(err, apperrors.CodeAccessDenied))
	})
}

// A hidden record occupying the same logical identity slot must not surface
// through the create path: the upsert collides with it, and the pipeline
// fails closed instead of returning a fact the caller may not read.
func (s *ServiceSuite) TestIngestHiddenMatchDoesNotLeakThroughCreate() {
	store := fact.NewMemoryStore()
	service := fact.NewService(store, s.types, validators.NewFactory(), s.origins, s.publisher)

	stranger := domain.SubjectID(uuid.New())
	hidden := &fact.Record{
		ID:         domain.NewFactID(),
		TypeID:     ipTypeID,
		TypeName:   "ipAddress",
		Value:      "1.2.3.4",
		AccessMode: domain.AccessModeExplicit,
		OriginID:   domain.NewOriginID(),
		AddedByID:  stranger,
		Comments:   []fact.Comment{{ID: uuid.New(), AuthorID: stranger, Text: "analyst-only note"}},
		ACL:        []domain.SubjectID{stranger},
	}
	_, err := store.Create(context.Background(), hidden)
	s.Require().NoError(err)

	s.types.EXPECT().GetByName(gomock.Any(), "ipAddress").Return(ipType(), nil)
	s.origins.EXPECT().ResolveOrigin(gomock.Any(), gomock.Nil()).Return(aliceOrigin(), nil)
	s.origins.EXPECT().ResolveOrganization(gomock.Any(), gomock.Nil(), gomock.Any()).
		Return(&access.Organization{InternalID: 2, ID: acmeOrgID}, nil)

	_, err = service.Ingest(s.ctx, fact.IngestRequest{Type: "ipAddress", Value: "1.2.3.4"})
	s.Require().Error(err)
	s.True(apperrors.HasCode(err, apperrors.CodeAccessDenied))
	s.Empty(s.publisher.Events())

	stored, err := store.GetByID(context.Background(), hidden.ID)
	s.Require().NoError(err)
	s.Require().Len(stored.Comments, 1, "denied submission leaves the hidden record untouched")
	s.Equal([]domain.SubjectID{stranger}, stored.ACL)
}

// raceWindowStore hides existing matches from dedup, so every submission
// takes the create path and collides inside Create. This is the interleaving
// of two concurrent identical writers.
type raceWindowStore struct {
	*fact.MemoryStore
}

func (s *raceWindowStore) RetrieveExisting(_ context.Context, _ *fact.Record) iter.Seq2[*fact.Record, error] {
	return seqOf()
}

func (s *ServiceSuite) TestIngestCreateCollisionMergesIntoReadableWinner() {
	store := &raceWindowStore{MemoryStore: fact.NewMemoryStore()}
	service := fact.NewService(store, s.types, validators.NewFactory(), s.origins, s.publisher)

	s.types.EXPECT().GetByName(gomock.Any(), "ipAddress").Return(ipType(), nil).Times(2)
	s.origins.EXPECT().ResolveOrigin(gomock.Any(), gomock.Nil()).Return(aliceOrigin(), nil).Times(2)
	s.origins.EXPECT().ResolveOrganization(gomock.Any(), gomock.Nil(), gomock.Any()).
		Return(&access.Organization{InternalID: 2, ID: acmeOrgID}, nil).Times(2)

	winner, err := service.Ingest(s.ctx, fact.IngestRequest{
		Type: "ipAddress", Value: "1.2.3.4", Comment: "winner",
	})
	s.Require().NoError(err)

	loser, err := service.Ingest(s.ctx, fact.IngestRequest{
		Type: "ipAddress", Value: "1.2.3.4", Comment: "loser",
	})
	s.Require().NoError(err)

	s.Equal(winner.ID, loser.ID, "both writers converge on one record")
	s.Require().Len(loser.Comments, 2, "the losing writer's comment is not dropped")
	s.Equal("winner", loser.Comments[0].Text)
	s.Equal("loser", loser.Comments[1].Text)
}

// Idempotence over a real store: the same submission twice lands on one
// record, with the second call's comment appended to it.
func (s *ServiceSuite) TestIngestIdempotentOverMemoryStore() {
	store := fact.NewMemoryStore()
	service := fact.NewService(store, s.types, validators.NewFactory(), s.origins, s.publisher)

	s.types.EXPECT().GetByName(gomock.Any(), "ipAddress").Return(ipType(), nil).Times(2)
	s.origins.EXPECT().ResolveOrigin(gomock.Any(), gomock.Nil()).Return(aliceOrigin(), nil).Times(2)
	s.origins.EXPECT().ResolveOrganization(gomock.Any(), gomock.Nil(), gomock.Any()).
		Return(&access.Organization{InternalID: 2, ID: acmeOrgID}, nil).Times(2)

	first, err := service.Ingest(s.ctx, fact.IngestRequest{
		Type: "ipAddress", Value: "1.2.3.4", Comment: "first",
	})
	s.Require().NoError(err)

	second, err := service.Ingest(s.ctx, fact.IngestRequest{
		Type: "ipAddress", Value: "1.2.3.4", Comment: "second",
	})
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Require().Len(second.Comments, 2)
	s.Equal("first", second.Comments[0].Text)
	s.Equal("second", second.Comments[1].Text)
	s.Len(s.publisher.Events(), 2, "each successful ingestion registers an event")
}
