package access

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"factgate/pkg/domain"
)

// PostgresSource loads the access state from the access_* tables.
//
// Schema:
//
//	CREATE TABLE access_functions (
//	    name     TEXT PRIMARY KEY,
//	    is_group BOOLEAN NOT NULL DEFAULT FALSE,
//	    members  TEXT[] NOT NULL DEFAULT '{}'
//	);
//
//	CREATE TABLE access_organizations (
//	    internal_id BIGINT PRIMARY KEY,
//	    id          UUID NOT NULL UNIQUE,
//	    name        TEXT NOT NULL,
//	    is_group    BOOLEAN NOT NULL DEFAULT FALSE,
//	    members     BIGINT[] NOT NULL DEFAULT '{}'
//	);
//
//	CREATE TABLE access_subjects (
//	    internal_id     BIGINT PRIMARY KEY,
//	    id              UUID NOT NULL UNIQUE,
//	    name            TEXT NOT NULL,
//	    organization_id UUID,
//	    functions       TEXT[] NOT NULL DEFAULT '{}',
//	    is_group        BOOLEAN NOT NULL DEFAULT FALSE,
//	    members         BIGINT[] NOT NULL DEFAULT '{}'
//	);
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource creates a Source backed by PostgreSQL.
func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// Load reads all three tables and builds a fresh snapshot.
func (s *PostgresSource) Load(ctx context.Context) (*Snapshot, error) {
	functions, err := s.loadFunctions(ctx)
	if err != nil {
		return nil, err
	}
	organizations, err := s.loadOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	subjects, err := s.loadSubjects(ctx)
	if err != nil {
		return nil, err
	}
	return NewBuilder().
		SetFunctions(functions).
		SetOrganizations(organizations).
		SetSubjects(subjects).
		Build(), nil
}

func (s *PostgresSource) loadFunctions(ctx context.Context) ([]Function, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, is_group, members FROM access_functions`)
	if err != nil {
		return nil, fmt.Errorf("load functions: %w", err)
	}
	defer rows.Close()

	var functions []Function
	for rows.Next() {
		var f Function
		if err := rows.Scan(&f.Name, &f.Group, pq.Array(&f.Members)); err != nil {
			return nil, fmt.Errorf("scan function: %w", err)
		}
		functions = append(functions, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load functions: %w", err)
	}
	return functions, nil
}

func (s *PostgresSource) loadOrganizations(ctx context.Context) ([]Organization, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT internal_id, id, name, is_group, members FROM access_organizations`)
	if err != nil {
		return nil, fmt.Errorf("load organizations: %w", err)
	}
	defer rows.Close()

	var organizations []Organization
	for rows.Next() {
		var (
			o  Organization
			id uuid.UUID
		)
		if err := rows.Scan(&o.InternalID, &id, &o.Name, &o.Group, pq.Array(&o.Members)); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		o.ID = domain.OrganizationID(id)
		organizations = append(organizations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load organizations: %w", err)
	}
	return organizations, nil
}

func (s *PostgresSource) loadSubjects(ctx context.Context) ([]Subject, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT internal_id, id, name, organization_id, functions, is_group, members FROM access_subjects`)
	if err != nil {
		return nil, fmt.Errorf("load subjects: %w", err)
	}
	defer rows.Close()

	var subjects []Subject
	for rows.Next() {
		var (
			sub   Subject
			id    uuid.UUID
			orgID sql.Null[uuid.UUID]
		)
		if err := rows.Scan(&sub.InternalID, &id, &sub.Name, &orgID,
			pq.Array(&sub.Functions), &sub.Group, pq.Array(&sub.Members)); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		sub.ID = domain.SubjectID(id)
		if orgID.Valid {
			sub.OrganizationID = domain.OrganizationID(orgID.V)
		}
		subjects = append(subjects, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load subjects: %w", err)
	}
	return subjects, nil
}
