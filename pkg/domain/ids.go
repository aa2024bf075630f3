// Package domain holds the shared domain primitives of the platform: typed
// entity identifiers and the access-mode lattice. Types here are transport and
// storage agnostic so every layer can depend on them.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Typed UUID wrappers. Using distinct types keeps a FactID from being passed
// where an OriginID is expected.
type (
	// FactID identifies a single fact record.
	FactID uuid.UUID
	// FactTypeID identifies a fact-type definition.
	FactTypeID uuid.UUID
	// OriginID identifies the submitting identity credited with a fact.
	OriginID uuid.UUID
	// SubjectID is the global identifier of a subject (user or subject group).
	SubjectID uuid.UUID
	// OrganizationID is the global identifier of an organization or
	// organization group.
	OrganizationID uuid.UUID
	// NamespaceID scopes origins created by this installation.
	NamespaceID uuid.UUID
	// ObjectID identifies a graph object a fact binds to.
	ObjectID uuid.UUID
)

// NewFactID returns a random FactID.
func NewFactID() FactID { return FactID(uuid.New()) }

// NewFactTypeID returns a random FactTypeID.
func NewFactTypeID() FactTypeID { return FactTypeID(uuid.New()) }

// NewSubjectID returns a random SubjectID.
func NewSubjectID() SubjectID { return SubjectID(uuid.New()) }

// NewOrganizationID returns a random OrganizationID.
func NewOrganizationID() OrganizationID { return OrganizationID(uuid.New()) }

// NewOriginID returns a random OriginID.
func NewOriginID() OriginID { return OriginID(uuid.New()) }

// NewNamespaceID returns a random NamespaceID.
func NewNamespaceID() NamespaceID { return NamespaceID(uuid.New()) }

// NewObjectID returns a random ObjectID.
func NewObjectID() ObjectID { return ObjectID(uuid.New()) }

func (id FactID) String() string         { return uuid.UUID(id).String() }
func (id FactTypeID) String() string     { return uuid.UUID(id).String() }
func (id OriginID) String() string       { return uuid.UUID(id).String() }
func (id SubjectID) String() string      { return uuid.UUID(id).String() }
func (id OrganizationID) String() string { return uuid.UUID(id).String() }
func (id NamespaceID) String() string    { return uuid.UUID(id).String() }
func (id ObjectID) String() string       { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id FactID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id FactTypeID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id OriginID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id SubjectID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id OrganizationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id NamespaceID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ObjectID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// The wrappers marshal as canonical UUID strings, not byte arrays.
func (id FactID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id FactTypeID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id OriginID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id SubjectID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id OrganizationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id NamespaceID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id ObjectID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }

func (id *FactID) UnmarshalText(text []byte) error {
	parsed, err := ParseFactID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *FactTypeID) UnmarshalText(text []byte) error {
	parsed, err := ParseFactTypeID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *OriginID) UnmarshalText(text []byte) error {
	parsed, err := ParseOriginID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *SubjectID) UnmarshalText(text []byte) error {
	parsed, err := ParseSubjectID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *OrganizationID) UnmarshalText(text []byte) error {
	parsed, err := ParseOrganizationID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *NamespaceID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return fmt.Errorf("parse namespace id: %w", err)
	}
	*id = NamespaceID(u)
	return nil
}

func (id *ObjectID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return fmt.Errorf("parse object id: %w", err)
	}
	*id = ObjectID(u)
	return nil
}

// ParseFactID parses a FactID from its string form.
func ParseFactID(s string) (FactID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return FactID{}, fmt.Errorf("parse fact id: %w", err)
	}
	return FactID(u), nil
}

// ParseOriginID parses an OriginID from its string form.
func ParseOriginID(s string) (OriginID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return OriginID{}, fmt.Errorf("parse origin id: %w", err)
	}
	return OriginID(u), nil
}

// ParseSubjectID parses a SubjectID from its string form.
func ParseSubjectID(s string) (SubjectID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return SubjectID{}, fmt.Errorf("parse subject id: %w", err)
	}
	return SubjectID(u), nil
}

// ParseOrganizationID parses an OrganizationID from its string form.
func ParseOrganizationID(s string) (OrganizationID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return OrganizationID{}, fmt.Errorf("parse organization id: %w", err)
	}
	return OrganizationID(u), nil
}

// ParseFactTypeID parses a FactTypeID from its string form.
func ParseFactTypeID(s string) (FactTypeID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return FactTypeID{}, fmt.Errorf("parse fact type id: %w", err)
	}
	return FactTypeID(u), nil
}
