package fact

import (
	"time"

	"factgate/pkg/domain"
)

// Fact is the external representation returned to callers and embedded in
// trigger events.
type Fact struct {
	ID            domain.FactID          `json:"id"`
	Type          FactType               `json:"type"`
	Value         string                 `json:"value"`
	Bindings      []Binding              `json:"bindings,omitempty"`
	InReferenceTo *domain.FactID         `json:"inReferenceTo,omitempty"`
	AccessMode    domain.AccessMode      `json:"accessMode"`
	Organization  *domain.OrganizationID `json:"organization,omitempty"`
	Origin        domain.OriginID        `json:"origin"`
	AddedBy       domain.SubjectID       `json:"addedBy"`
	Trust         float64                `json:"trust"`
	Confidence    float64                `json:"confidence"`
	Timestamp     time.Time              `json:"timestamp"`
	LastSeen      time.Time              `json:"lastSeenTimestamp"`
	Comments      []Comment              `json:"comments,omitempty"`
	ACL           []domain.SubjectID     `json:"acl,omitempty"`
}

// FactType names the fact's type in the external representation.
type FactType struct {
	ID   domain.FactTypeID `json:"id"`
	Name string            `json:"name"`
}

// Convert shapes a stored record for the outside world.
func Convert(record *Record) *Fact {
	f := &Fact{
		ID:            record.ID,
		Type:          FactType{ID: record.TypeID, Name: record.TypeName},
		Value:         record.Value,
		Bindings:      append([]Binding(nil), record.Bindings...),
		InReferenceTo: record.InReferenceTo,
		AccessMode:    record.AccessMode,
		Origin:        record.OriginID,
		AddedBy:       record.AddedByID,
		Trust:         record.Trust,
		Confidence:    record.Confidence,
		Timestamp:     record.Timestamp,
		LastSeen:      record.LastSeen,
		Comments:      append([]Comment(nil), record.Comments...),
		ACL:           append([]domain.SubjectID(nil), record.ACL...),
	}
	if !record.OrganizationID.IsNil() {
		org := record.OrganizationID
		f.Organization = &org
	}
	return f
}
