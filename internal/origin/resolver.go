package origin

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"factgate/internal/access"
	"factgate/internal/security"
	"factgate/pkg/apperrors"
	"factgate/pkg/domain"
	"factgate/pkg/platform/sentinel"
)

// SubjectResolver resolves a subject profile by global ID.
// A nil result with nil error means the subject does not exist.
type SubjectResolver interface {
	ResolveSubject(ctx context.Context, id domain.SubjectID) (*access.Subject, error)
}

// OrganizationResolver resolves an organization by global ID.
// A nil result with nil error means the organization does not exist.
type OrganizationResolver interface {
	ResolveOrganization(ctx context.Context, id domain.OrganizationID) (*access.Organization, error)
}

// Resolver looks up or creates the origin and organization of an ingestion
// request. The caller's gateway is taken from the request context, so every
// resolution is bound to an authenticated identity.
type Resolver struct {
	registry      Registry
	subjects      SubjectResolver
	organizations OrganizationResolver
}

// NewResolver wires a Resolver from its collaborators.
func NewResolver(registry Registry, subjects SubjectResolver, organizations OrganizationResolver) *Resolver {
	return &Resolver{registry: registry, subjects: subjects, organizations: organizations}
}

// ResolveOrigin returns the origin identified by providedID, or, when absent,
// the origin of the calling subject — auto-created on first use.
//
// Provided IDs must resolve to an existing, non-deleted origin the caller may
// read. Auto-created origins take the caller's name and organization, a fresh
// namespace ID, trust DefaultUserTrust and type User; an existing origin
// under the same name owned by someone else forces a suffixed name.
func (r *Resolver) ResolveOrigin(ctx context.Context, providedID *domain.OriginID) (*Origin, error) {
	gw, err := security.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	if providedID != nil {
		o, err := r.lookupUsable(ctx, *providedID)
		if err != nil {
			return nil, err
		}
		if err := gw.CheckOriginReadPermission(o.OrganizationID); err != nil {
			return nil, err
		}
		return o, nil
	}

	callerID := domain.OriginID(gw.CurrentSubjectID())
	o, err := r.lookupCaller(ctx, callerID)
	if err != nil || o != nil {
		return o, err
	}
	return r.createForCaller(ctx, gw)
}

// FunctionViewOrigins guards the read-side origin API.
const FunctionViewOrigins = "viewOrigins"

// GetOrigin is the read-side lookup behind the origin API. Unlike
// ResolveOrigin it requires the viewOrigins function and reports unknown or
// deleted origins as not found.
func (r *Resolver) GetOrigin(ctx context.Context, id domain.OriginID) (*Origin, error) {
	gw, err := security.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := gw.CheckPermission(FunctionViewOrigins); err != nil {
		return nil, err
	}

	o, err := r.registry.GetByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "origin %s not found", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "fetch origin")
	}
	if o.Deleted {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "origin %s not found", id)
	}
	if err := gw.CheckOriginReadPermission(o.OrganizationID); err != nil {
		return nil, err
	}
	return o, nil
}

// GetCallerOrigin returns the caller's own origin, creating it on first use.
func (r *Resolver) GetCallerOrigin(ctx context.Context) (*Origin, error) {
	gw, err := security.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := gw.CheckPermission(FunctionViewOrigins); err != nil {
		return nil, err
	}
	return r.ResolveOrigin(ctx, nil)
}

// lookupUsable fetches a provided origin; absence and deletion are both
// invalid arguments, never silently repaired.
func (r *Resolver) lookupUsable(ctx context.Context, id domain.OriginID) (*Origin, error) {
	o, err := r.registry.GetByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, apperrors.InvalidArgument("origin", "origin.not.exist")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "fetch origin")
	}
	if o.Deleted {
		return nil, apperrors.InvalidArgument("origin", "origin.deleted")
	}
	return o, nil
}

// lookupCaller fetches the caller's own origin; (nil, nil) means it does not
// exist yet, a deleted caller origin is an invalid argument.
func (r *Resolver) lookupCaller(ctx context.Context, id domain.OriginID) (*Origin, error) {
	o, err := r.registry.GetByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "fetch origin")
	}
	if o.Deleted {
		return nil, apperrors.InvalidArgument("origin", "origin.deleted")
	}
	return o, nil
}

func (r *Resolver) createForCaller(ctx context.Context, gw *security.Gateway) (*Origin, error) {
	subjectID := gw.CurrentSubjectID()
	subject, err := r.subjects.ResolveSubject(ctx, subjectID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "resolve subject profile")
	}
	if subject == nil {
		return nil, apperrors.InvalidArgument("subject", "subject.not.exist")
	}

	name, err := r.uniqueName(ctx, subjectID, subject.Name)
	if err != nil {
		return nil, err
	}

	return r.registry.Save(ctx, &Origin{
		ID:             domain.OriginID(subjectID),
		NamespaceID:    domain.NewNamespaceID(),
		OrganizationID: subject.OrganizationID,
		Name:           name,
		Trust:          DefaultUserTrust,
		Type:           TypeUser,
	})
}

// uniqueName returns the caller's display name, suffixed when another
// subject's origin already claims it. Exactly one origin per name at any
// time.
func (r *Resolver) uniqueName(ctx context.Context, callerID domain.SubjectID, base string) (string, error) {
	name := base
	for {
		existing, err := r.registry.GetByName(ctx, name)
		if errors.Is(err, sentinel.ErrNotFound) {
			return name, nil
		}
		if err != nil {
			return "", apperrors.Wrap(err, apperrors.CodeInternal, "check origin name")
		}
		if existing.ID == domain.OriginID(callerID) {
			return name, nil
		}
		name = fmt.Sprintf("%s~%s", base, uuid.NewString()[:8])
	}
}

// ResolveOrganization determines the owning organization for a new fact:
// the explicitly provided one, else the fallback origin's, else the caller's
// own. No provided ID and no fallback origin yields no organization.
func (r *Resolver) ResolveOrganization(ctx context.Context, providedID *domain.OrganizationID, fallback *Origin) (*access.Organization, error) {
	gw, err := security.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	if providedID != nil {
		org, err := r.lookupOrganization(ctx, *providedID)
		if err != nil {
			return nil, err
		}
		if err := gw.CheckOrganizationReadPermission(org.ID); err != nil {
			return nil, err
		}
		return org, nil
	}

	if fallback == nil {
		return nil, nil
	}
	if !fallback.OrganizationID.IsNil() {
		return r.lookupOrganization(ctx, fallback.OrganizationID)
	}
	if callerOrg := gw.CurrentOrganizationID(); !callerOrg.IsNil() {
		return r.lookupOrganization(ctx, callerOrg)
	}
	return nil, nil
}

func (r *Resolver) lookupOrganization(ctx context.Context, id domain.OrganizationID) (*access.Organization, error) {
	org, err := r.organizations.ResolveOrganization(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "resolve organization")
	}
	if org == nil {
		return nil, apperrors.InvalidArgument("organization", "organization.not.exist")
	}
	return org, nil
}
