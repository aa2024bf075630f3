package fact

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"iter"

	"factgate/pkg/domain"
)

// Store is the persistence boundary for fact records.
//
// Create must be an idempotent upsert keyed by the record's logical
// identity: when two writers race on the same logical fact, both calls
// return the single record that won, never two records. The pipeline holds
// no lock across its read-then-write sequence, so this contract is what
// keeps concurrent identical submissions convergent.
type Store interface {
	// GetByID returns the record or sentinel.ErrNotFound.
	GetByID(ctx context.Context, id domain.FactID) (*Record, error)

	// RetrieveExisting streams records matching the candidate's logical
	// identity. The sequence yields at most one non-nil error, as its final
	// element.
	RetrieveExisting(ctx context.Context, candidate *Record) iter.Seq2[*Record, error]

	// Create commits a new record, or returns the already stored record with
	// the same logical identity.
	Create(ctx context.Context, record *Record) (*Record, error)

	// Refresh commits updated comments and ACL for an existing record and
	// bumps its last-seen timestamp.
	Refresh(ctx context.Context, record *Record) (*Record, error)
}

// TypeRegistry resolves fact-type definitions by name.
type TypeRegistry interface {
	// GetByName returns the definition or sentinel.ErrNotFound.
	GetByName(ctx context.Context, name string) (*TypeDefinition, error)
}
