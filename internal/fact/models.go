// Package fact implements the ingestion pipeline for graph assertions:
// validation against the fact-type's rules, origin and organization
// resolution, dedup against already stored records, and the create-or-refresh
// commit with its trigger event.
package fact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"factgate/internal/security"
	"factgate/pkg/domain"
)

// Direction describes how a fact relates to a bound object.
type Direction string

const (
	DirectionBi          Direction = "BiDirectional"
	DirectionSource      Direction = "FactIsSource"
	DirectionDestination Direction = "FactIsDestination"
)

// ParseDirection validates a wire-level direction string.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirectionBi, DirectionSource, DirectionDestination:
		return d, nil
	default:
		return "", fmt.Errorf("unknown binding direction: %s", s)
	}
}

// Binding ties a fact to one graph object.
type Binding struct {
	ObjectID  domain.ObjectID `json:"objectId"`
	Direction Direction       `json:"direction"`
}

// Comment is an annotation attached to a fact by a subject.
type Comment struct {
	ID        uuid.UUID        `json:"id"`
	AuthorID  domain.SubjectID `json:"authorId"`
	Text      string           `json:"text"`
	Timestamp time.Time        `json:"timestamp"`
}

// Record is the stored form of a fact. Two records with the same type,
// value and bindings are the same logical fact; everything else is metadata
// accumulated across submissions.
type Record struct {
	ID             domain.FactID
	TypeID         domain.FactTypeID
	TypeName       string
	Value          string
	Bindings       []Binding
	InReferenceTo  *domain.FactID
	AccessMode     domain.AccessMode
	OrganizationID domain.OrganizationID
	OriginID       domain.OriginID
	AddedByID      domain.SubjectID
	Trust          float64
	Confidence     float64
	Timestamp      time.Time
	LastSeen       time.Time
	Comments       []Comment
	ACL            []domain.SubjectID
}

// LogicalIdentity hashes the fields that make two submissions the same
// fact: type, value and the bound objects. Bindings hash order-independent.
// Stores use this as the upsert key, which makes concurrent identical
// submissions converge on one record.
func (r *Record) LogicalIdentity() string {
	parts := make([]string, 0, len(r.Bindings))
	for _, b := range r.Bindings {
		parts = append(parts, b.ObjectID.String()+"/"+string(b.Direction))
	}
	sort.Strings(parts)

	h := sha256.New()
	h.Write([]byte(r.TypeID.String()))
	h.Write([]byte{0})
	h.Write([]byte(r.Value))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(parts, ",")))
	return hex.EncodeToString(h.Sum(nil))
}

// AccessView projects the record into the shape the security gateway
// evaluates read permission against.
func (r *Record) AccessView() security.FactAccess {
	return security.FactAccess{
		AccessMode:     r.AccessMode,
		OrganizationID: r.OrganizationID,
		ACL:            r.ACL,
	}
}

// Clone returns a deep copy so stores can hand out records without aliasing
// their internal state.
func (r *Record) Clone() *Record {
	out := *r
	out.Bindings = append([]Binding(nil), r.Bindings...)
	out.Comments = append([]Comment(nil), r.Comments...)
	out.ACL = append([]domain.SubjectID(nil), r.ACL...)
	if r.InReferenceTo != nil {
		ref := *r.InReferenceTo
		out.InReferenceTo = &ref
	}
	return &out
}

// TypeDefinition configures validation for one fact type.
type TypeDefinition struct {
	ID                 domain.FactTypeID
	Name               string
	ValidatorName      string
	ValidatorParameter string
	DefaultConfidence  float64
}
