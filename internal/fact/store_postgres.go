package fact

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"

	"factgate/pkg/domain"
	"factgate/pkg/platform/sentinel"
	txcontext "factgate/pkg/platform/tx"
)

// PostgresStore persists fact records. The UNIQUE constraint on
// identity_hash is what arbitrates concurrent identical submissions: the
// upsert in Create returns the surviving row no matter which writer got
// there first.
//
// Schema:
//
//	CREATE TABLE facts (
//	    id              UUID PRIMARY KEY,
//	    identity_hash   TEXT NOT NULL UNIQUE,
//	    type_id         UUID NOT NULL,
//	    type_name       TEXT NOT NULL,
//	    value           TEXT NOT NULL,
//	    bindings        JSONB NOT NULL DEFAULT '[]',
//	    in_reference_to UUID,
//	    access_mode     TEXT NOT NULL,
//	    organization_id UUID,
//	    origin_id       UUID NOT NULL,
//	    added_by_id     UUID NOT NULL,
//	    trust           DOUBLE PRECISION NOT NULL,
//	    confidence      DOUBLE PRECISION NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL,
//	    last_seen_at    TIMESTAMPTZ NOT NULL,
//	    comments        JSONB NOT NULL DEFAULT '[]',
//	    acl             JSONB NOT NULL DEFAULT '[]'
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) querier(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const factColumns = `id, type_id, type_name, value, bindings, in_reference_to, access_mode,
	organization_id, origin_id, added_by_id, trust, confidence, created_at, last_seen_at,
	comments, acl`

func (s *PostgresStore) GetByID(ctx context.Context, id domain.FactID) (*Record, error) {
	row := s.querier(ctx).QueryRowContext(ctx,
		`SELECT `+factColumns+` FROM facts WHERE id = $1`, uuid.UUID(id))
	return scanFact(row)
}

func (s *PostgresStore) RetrieveExisting(ctx context.Context, candidate *Record) iter.Seq2[*Record, error] {
	identity := candidate.LogicalIdentity()
	return func(yield func(*Record, error) bool) {
		rows, err := s.querier(ctx).QueryContext(ctx,
			`SELECT `+factColumns+` FROM facts WHERE identity_hash = $1`, identity)
		if err != nil {
			yield(nil, fmt.Errorf("query existing facts: %w", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			record, err := scanFact(rows)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(record, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("iterate existing facts: %w", err))
		}
	}
}

func (s *PostgresStore) Create(ctx context.Context, record *Record) (*Record, error) {
	bindings, comments, acl, err := encodeJSONFields(record)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	createdAt := record.Timestamp
	if createdAt.IsZero() {
		createdAt = now
	}
	lastSeen := record.LastSeen
	if lastSeen.IsZero() {
		lastSeen = createdAt
	}

	var refID any
	if record.InReferenceTo != nil {
		refID = uuid.UUID(*record.InReferenceTo)
	}
	var orgID any
	if !record.OrganizationID.IsNil() {
		orgID = uuid.UUID(record.OrganizationID)
	}

	// A loser of the insert race updates nothing of substance and gets the
	// winner's row back.
	row := s.querier(ctx).QueryRowContext(ctx, `
		INSERT INTO facts (id, identity_hash, type_id, type_name, value, bindings,
			in_reference_to, access_mode, organization_id, origin_id, added_by_id,
			trust, confidence, created_at, last_seen_at, comments, acl)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (identity_hash) DO UPDATE
			SET last_seen_at = GREATEST(facts.last_seen_at, EXCLUDED.last_seen_at)
		RETURNING `+factColumns,
		uuid.UUID(record.ID), record.LogicalIdentity(), uuid.UUID(record.TypeID),
		record.TypeName, record.Value, bindings, refID, string(record.AccessMode),
		orgID, uuid.UUID(record.OriginID), uuid.UUID(record.AddedByID),
		record.Trust, record.Confidence, createdAt, lastSeen, comments, acl)
	return scanFact(row)
}

// Refresh merges the record's comments and ACL into the stored row. The
// merge runs inside the UPDATE against the row's current value, so two
// refreshes racing on the same fact both land instead of the later write
// clobbering the earlier one.
func (s *PostgresStore) Refresh(ctx context.Context, record *Record) (*Record, error) {
	_, comments, acl, err := encodeJSONFields(record)
	if err != nil {
		return nil, err
	}
	row := s.querier(ctx).QueryRowContext(ctx, `
		UPDATE facts
		SET comments = facts.comments || (
				SELECT COALESCE(jsonb_agg(c), '[]'::jsonb)
				FROM jsonb_array_elements($2::jsonb) AS c
				WHERE NOT facts.comments @> jsonb_build_array(c)),
			acl = (
				SELECT COALESCE(jsonb_agg(DISTINCT e), '[]'::jsonb)
				FROM jsonb_array_elements(facts.acl || $3::jsonb) AS e),
			last_seen_at = $4
		WHERE id = $1
		RETURNING `+factColumns,
		uuid.UUID(record.ID), comments, acl, time.Now().UTC())
	return scanFact(row)
}

func encodeJSONFields(record *Record) (bindings, comments, acl []byte, err error) {
	if bindings, err = json.Marshal(record.Bindings); err != nil {
		return nil, nil, nil, fmt.Errorf("encode bindings: %w", err)
	}
	if record.Bindings == nil {
		bindings = []byte("[]")
	}
	if comments, err = json.Marshal(record.Comments); err != nil {
		return nil, nil, nil, fmt.Errorf("encode comments: %w", err)
	}
	if record.Comments == nil {
		comments = []byte("[]")
	}
	if acl, err = json.Marshal(record.ACL); err != nil {
		return nil, nil, nil, fmt.Errorf("encode acl: %w", err)
	}
	if record.ACL == nil {
		acl = []byte("[]")
	}
	return bindings, comments, acl, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFact(row rowScanner) (*Record, error) {
	var (
		r                       Record
		id, typeID, originID    uuid.UUID
		addedByID               uuid.UUID
		refID, orgID            sql.Null[uuid.UUID]
		bindings, comments, acl []byte
		accessMode              string
	)
	err := row.Scan(&id, &typeID, &r.TypeName, &r.Value, &bindings, &refID, &accessMode,
		&orgID, &originID, &addedByID, &r.Trust, &r.Confidence, &r.Timestamp, &r.LastSeen,
		&comments, &acl)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan fact: %w", err)
	}

	r.ID = domain.FactID(id)
	r.TypeID = domain.FactTypeID(typeID)
	r.OriginID = domain.OriginID(originID)
	r.AddedByID = domain.SubjectID(addedByID)
	r.AccessMode = domain.AccessMode(accessMode)
	if refID.Valid {
		ref := domain.FactID(refID.V)
		r.InReferenceTo = &ref
	}
	if orgID.Valid {
		r.OrganizationID = domain.OrganizationID(orgID.V)
	}
	if err := json.Unmarshal(bindings, &r.Bindings); err != nil {
		return nil, fmt.Errorf("decode bindings: %w", err)
	}
	if err := json.Unmarshal(comments, &r.Comments); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	if err := json.Unmarshal(acl, &r.ACL); err != nil {
		return nil, fmt.Errorf("decode acl: %w", err)
	}
	return &r, nil
}
