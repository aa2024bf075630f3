// Package security implements the per-request security gateway: a value
// bound to the caller's identity that answers "may this caller perform
// operation X" and "may this caller read entity Y" against the current
// access snapshot. The gateway fails closed: without a bound gateway no
// access is ever assumed granted.
package security

import (
	"factgate/internal/access"
	"factgate/pkg/apperrors"
	"factgate/pkg/domain"
)

// Identity is the authenticated caller: the subject the request runs as and
// the organization that subject belongs to.
type Identity struct {
	SubjectID      domain.SubjectID
	OrganizationID domain.OrganizationID
}

// FactAccess is the access-control view of a fact record. The fact package
// projects its records into this shape so the gateway does not depend on
// storage models.
type FactAccess struct {
	AccessMode     domain.AccessMode
	OrganizationID domain.OrganizationID
	ACL            []domain.SubjectID
}

// Gateway answers permission questions for exactly one request. It is bound
// into the request context via Bind and must never be shared across requests;
// the snapshot it wraps is immutable, so reads need no locking.
type Gateway struct {
	identity Identity
	snapshot *access.Snapshot
}

// NewGateway creates a gateway for an authenticated identity against a
// snapshot.
func NewGateway(identity Identity, snapshot *access.Snapshot) *Gateway {
	return &Gateway{identity: identity, snapshot: snapshot}
}

// CurrentSubjectID returns the bound identity's subject ID.
func (g *Gateway) CurrentSubjectID() domain.SubjectID {
	return g.identity.SubjectID
}

// CurrentOrganizationID returns the bound identity's organization ID.
func (g *Gateway) CurrentOrganizationID() domain.OrganizationID {
	return g.identity.OrganizationID
}

// CheckPermission verifies that the caller's resolved function set, through
// subject-group and function-group closure, includes the named function.
func (g *Gateway) CheckPermission(function string) error {
	subject, ok := g.snapshot.SubjectByGlobalID(g.identity.SubjectID.String())
	if !ok {
		// Authenticated but unknown to the access state: no grants.
		return apperrors.Newf(apperrors.CodeAccessDenied, "subject has no permission grants")
	}

	granted := append([]string(nil), subject.Functions...)
	for _, parent := range g.snapshot.ParentSubjects(subject.InternalID) {
		granted = append(granted, parent.Functions...)
	}

	expanded := g.snapshot.ExpandFunctions(granted)
	if _, ok := expanded[function]; !ok {
		return apperrors.Newf(apperrors.CodeAccessDenied, "permission %q denied", function)
	}
	return nil
}

// CheckFactReadPermission evaluates the fact's access mode:
// Public grants unconditional read; RoleBased grants read within the owning
// organization's group closure; Explicit grants read only to subjects (or
// groups the caller belongs to) on the fact's ACL.
func (g *Gateway) CheckFactReadPermission(fact FactAccess) error {
	switch fact.AccessMode {
	case domain.AccessModePublic:
		return nil
	case domain.AccessModeRoleBased:
		return g.CheckOrganizationReadPermission(fact.OrganizationID)
	case domain.AccessModeExplicit:
		if g.aclContainsCaller(fact.ACL) {
			return nil
		}
		return apperrors.New(apperrors.CodeAccessDenied, "no explicit access to fact")
	default:
		// Unknown mode: fail closed.
		return apperrors.Newf(apperrors.CodeAccessDenied, "unknown access mode %q", fact.AccessMode)
	}
}

// CheckOrganizationReadPermission grants read when the caller's organization
// equals the target or is connected to it through group closure in either
// direction (ancestor or descendant).
func (g *Gateway) CheckOrganizationReadPermission(organizationID domain.OrganizationID) error {
	if organizationID.IsNil() {
		// Entities without an owning organization are globally readable.
		return nil
	}
	if organizationID == g.identity.OrganizationID {
		return nil
	}

	caller, ok := g.snapshot.OrganizationByGlobalID(g.identity.OrganizationID.String())
	if !ok {
		return apperrors.New(apperrors.CodeAccessDenied, "caller organization unknown")
	}
	target, ok := g.snapshot.OrganizationByGlobalID(organizationID.String())
	if !ok {
		return apperrors.New(apperrors.CodeAccessDenied, "target organization unknown")
	}

	for _, parent := range g.snapshot.ParentOrganizations(caller.InternalID) {
		if parent.InternalID == target.InternalID {
			return nil
		}
	}
	for _, child := range g.snapshot.ChildOrganizations(caller.InternalID) {
		if child.InternalID == target.InternalID {
			return nil
		}
	}
	return apperrors.New(apperrors.CodeAccessDenied, "organization outside caller's group closure")
}

// CheckOriginReadPermission grants read on an origin through its owning
// organization; organization-less origins are globally readable.
func (g *Gateway) CheckOriginReadPermission(organizationID domain.OrganizationID) error {
	return g.CheckOrganizationReadPermission(organizationID)
}

// HasFactReadPermission is the boolean form used by the dedup step of the
// ingestion pipeline, where "no access" selects the create path instead of
// failing the request.
func (g *Gateway) HasFactReadPermission(fact FactAccess) bool {
	return g.CheckFactReadPermission(fact) == nil
}

func (g *Gateway) aclContainsCaller(acl []domain.SubjectID) bool {
	for _, grant := range acl {
		if grant == g.identity.SubjectID {
			return true
		}
	}
	// A grant to a subject group covers its transitive members.
	caller, ok := g.snapshot.SubjectByGlobalID(g.identity.SubjectID.String())
	if !ok {
		return false
	}
	for _, parent := range g.snapshot.ParentSubjects(caller.InternalID) {
		for _, grant := range acl {
			if grant == parent.ID {
				return true
			}
		}
	}
	return false
}
