// Command server wires the dependencies and runs the HTTP API. Business
// logic lives in the internal services packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"factgate/internal/access"
	"factgate/internal/fact"
	factmetrics "factgate/internal/fact/metrics"
	"factgate/internal/jwtauth"
	"factgate/internal/origin"
	"factgate/internal/platform/config"
	"factgate/internal/platform/httpserver"
	"factgate/internal/platform/logger"
	"factgate/internal/platform/metrics"
	platformredis "factgate/internal/platform/redis"
	"factgate/internal/revocation"
	httptransport "factgate/internal/transport/http"
	"factgate/internal/trigger"
	"factgate/internal/validators"
	"factgate/pkg/domain"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. Without Postgres everything runs in memory, which is only
	// useful for local development.
	var (
		store    fact.Store
		registry origin.Registry
		source   access.Source
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		store = fact.NewPostgresStore(db)
		registry = origin.NewPostgresRegistry(db)
		source = access.NewPostgresSource(db)
	} else {
		log.Warn("no postgres DSN configured, running with in-memory storage")
		store = fact.NewMemoryStore()
		registry = origin.NewMemoryRegistry()
		// Built once so refresh ticks keep the same dev identity.
		snap := devSnapshot()
		source = access.SourceFunc(func(context.Context) (*access.Snapshot, error) {
			return snap, nil
		})
	}

	provider := access.NewProvider(source)
	if _, err := provider.Refresh(ctx); err != nil {
		return err
	}
	directory := access.NewDirectory(provider)

	// Trigger events go to Kafka when brokers are configured; otherwise they
	// stay in process.
	var sink trigger.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := trigger.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer kafka.Close()
		sink = kafka
	} else {
		log.Warn("no kafka brokers configured, trigger events stay in process")
		sink = trigger.NewMemoryPublisher()
	}
	dispatcher := trigger.NewDispatcher(sink, log, trigger.WithMetrics(trigger.NewMetrics()))

	// Token revocation list, Redis backed when configured.
	var revocations revocation.List
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		revocations = revocation.NewRedisList(redisClient)
	} else {
		revocations = revocation.NewMemoryList()
	}

	resolver := origin.NewResolver(registry, directory, directory)
	types := fact.NewMemoryTypeRegistry(builtinTypes()...)
	factService := fact.NewService(store, types, validators.NewFactory(), resolver, dispatcher,
		fact.WithLogger(log),
		fact.WithMetrics(factmetrics.New()),
	)

	tokens := jwtauth.NewService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:      log,
		Metrics:     metrics.New(),
		Validator:   tokens,
		Revocations: revocations,
		Snapshots:   provider,
		Handlers: []httptransport.Registrar{
			httptransport.NewFactHandler(factService, log),
			httptransport.NewOriginHandler(resolver, log),
			httptransport.NewTokenHandler(revocations, log),
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return provider.Run(ctx, cfg.SnapshotRefreshInterval, log)
	})
	g.Go(func() error {
		return dispatcher.Run(ctx)
	})
	g.Go(func() error {
		log.Info("starting factgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("factgate stopped")
	return nil
}

// devSnapshot is the access state used when no real source is configured.
// One admin subject, taken from FACTGATE_DEV_SUBJECT_ID when set, holds every
// function.
func devSnapshot() *access.Snapshot {
	subjectID := domain.NewSubjectID()
	if raw := os.Getenv("FACTGATE_DEV_SUBJECT_ID"); raw != "" {
		if parsed, err := uuid.Parse(raw); err == nil {
			subjectID = domain.SubjectID(parsed)
		}
	}
	orgID := domain.NewOrganizationID()
	return access.NewBuilder().
		SetFunctions([]access.Function{
			{Name: fact.FunctionAddFact},
			{Name: fact.FunctionViewFacts},
			{Name: origin.FunctionViewOrigins},
		}).
		SetOrganizations([]access.Organization{
			{InternalID: 1, ID: orgID, Name: "dev"},
		}).
		SetSubjects([]access.Subject{
			{InternalID: 1, ID: subjectID, Name: "dev-admin", OrganizationID: orgID,
				Functions: []string{fact.FunctionAddFact, fact.FunctionViewFacts, origin.FunctionViewOrigins}},
		}).
		Build()
}

// builtinTypes seeds the fact-type registry. Type definitions are static for
// now; a storage-backed registry can replace this without touching the
// ingestion pipeline.
func builtinTypes() []fact.TypeDefinition {
	return []fact.TypeDefinition{
		{
			ID:                 domain.NewFactTypeID(),
			Name:               "ipv4",
			ValidatorName:      validators.NameRegex,
			ValidatorParameter: `(\d{1,3}\.){3}\d{1,3}`,
			DefaultConfidence:  0.9,
		},
		{
			ID:                 domain.NewFactTypeID(),
			Name:               "domain",
			ValidatorName:      validators.NameRegex,
			ValidatorParameter: `[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+`,
			DefaultConfidence:  0.8,
		},
		{
			ID:                 domain.NewFactTypeID(),
			Name:               "sha256",
			ValidatorName:      validators.NameRegex,
			ValidatorParameter: `[a-f0-9]{64}`,
			DefaultConfidence:  1.0,
		},
		{
			ID:            domain.NewFactTypeID(),
			Name:          "mentions",
			ValidatorName: validators.NameTrue,
		},
	}
}
