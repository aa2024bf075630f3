// Package origin manages the identities credited with submitting facts: the
// registry boundary that persists them and the resolver that looks up or
// auto-creates the origin for an ingestion request.
package origin

import (
	"factgate/pkg/domain"
)

// Type classifies an origin.
type Type string

const (
	// TypeUser marks origins auto-created for individual subjects.
	TypeUser Type = "User"
	// TypeOrganization marks origins representing a whole organization, e.g.
	// an automated feed.
	TypeOrganization Type = "Organization"
)

// DefaultUserTrust is the trust score assigned to auto-created user origins.
const DefaultUserTrust = 0.8

// Origin is the submitting identity credited with a fact. Trust is a score
// in [0,1] weighing how much confidence the platform places in facts from
// this origin.
type Origin struct {
	ID             domain.OriginID
	NamespaceID    domain.NamespaceID
	OrganizationID domain.OrganizationID
	Name           string
	Trust          float64
	Type           Type
	// Deleted origins are retained for provenance but must never be returned
	// as usable.
	Deleted bool
}
