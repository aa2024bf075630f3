package origin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"factgate/pkg/domain"
	"factgate/pkg/platform/sentinel"
	txcontext "factgate/pkg/platform/tx"
)

// PostgresRegistry persists origins in the origins table.
//
// Schema:
//
//	CREATE TABLE origins (
//	    id              UUID PRIMARY KEY,
//	    namespace_id    UUID NOT NULL,
//	    organization_id UUID,
//	    name            TEXT NOT NULL UNIQUE,
//	    trust           DOUBLE PRECISION NOT NULL,
//	    type            TEXT NOT NULL,
//	    deleted         BOOLEAN NOT NULL DEFAULT FALSE
//	);
type PostgresRegistry struct {
	db *sql.DB
}

// NewPostgresRegistry creates a Registry backed by PostgreSQL.
func NewPostgresRegistry(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *PostgresRegistry) querier(ctx context.Context) rowQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return r.db
}

const originColumns = `id, namespace_id, organization_id, name, trust, type, deleted`

func (r *PostgresRegistry) GetByID(ctx context.Context, id domain.OriginID) (*Origin, error) {
	row := r.querier(ctx).QueryRowContext(ctx,
		`SELECT `+originColumns+` FROM origins WHERE id = $1`, uuid.UUID(id))
	return scanOrigin(row)
}

func (r *PostgresRegistry) GetByName(ctx context.Context, name string) (*Origin, error) {
	row := r.querier(ctx).QueryRowContext(ctx,
		`SELECT `+originColumns+` FROM origins WHERE name = $1`, name)
	return scanOrigin(row)
}

func (r *PostgresRegistry) Save(ctx context.Context, o *Origin) (*Origin, error) {
	var orgID any
	if !o.OrganizationID.IsNil() {
		orgID = uuid.UUID(o.OrganizationID)
	}
	_, err := r.querier(ctx).ExecContext(ctx, `
		INSERT INTO origins (id, namespace_id, organization_id, name, trust, type, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			organization_id = EXCLUDED.organization_id,
			name            = EXCLUDED.name,
			trust           = EXCLUDED.trust,
			type            = EXCLUDED.type,
			deleted         = EXCLUDED.deleted
	`, uuid.UUID(o.ID), uuid.UUID(o.NamespaceID), orgID, o.Name, o.Trust, string(o.Type), o.Deleted)
	if err != nil {
		return nil, fmt.Errorf("save origin: %w", err)
	}
	saved := *o
	return &saved, nil
}

func scanOrigin(row *sql.Row) (*Origin, error) {
	var (
		o          Origin
		id, nsID   uuid.UUID
		orgID      sql.Null[uuid.UUID]
		originType string
	)
	err := row.Scan(&id, &nsID, &orgID, &o.Name, &o.Trust, &originType, &o.Deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan origin: %w", err)
	}
	o.ID = domain.OriginID(id)
	o.NamespaceID = domain.NamespaceID(nsID)
	if orgID.Valid {
		o.OrganizationID = domain.OrganizationID(orgID.V)
	}
	o.Type = Type(originType)
	return &o, nil
}
