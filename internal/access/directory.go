package access

import (
	"context"

	"factgate/pkg/domain"
)

// Directory serves subject and organization lookups from the provider's
// current snapshot. It satisfies the consumer-side resolver interfaces of
// the packages that need profile data without pinning them to a snapshot
// taken at construction time.
type Directory struct {
	provider *Provider
}

// NewDirectory wraps a provider as a lookup directory.
func NewDirectory(provider *Provider) *Directory {
	return &Directory{provider: provider}
}

// ResolveSubject returns the subject with the given global ID, or nil when
// the current snapshot does not know it.
func (d *Directory) ResolveSubject(_ context.Context, id domain.SubjectID) (*Subject, error) {
	if s, ok := d.provider.Current().SubjectByGlobalID(id.String()); ok {
		return &s, nil
	}
	return nil, nil
}

// ResolveOrganization returns the organization with the given global ID, or
// nil when the current snapshot does not know it.
func (d *Directory) ResolveOrganization(_ context.Context, id domain.OrganizationID) (*Organization, error) {
	if o, ok := d.provider.Current().OrganizationByGlobalID(id.String()); ok {
		return &o, nil
	}
	return nil, nil
}
