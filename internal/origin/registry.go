package origin

import (
	"context"

	"factgate/pkg/domain"
)

// Registry is the storage boundary for origins. Implementations return
// sentinel.ErrNotFound for unknown IDs or names; deleted origins are
// returned as stored, filtering is the resolver's concern.
type Registry interface {
	GetByID(ctx context.Context, id domain.OriginID) (*Origin, error)
	GetByName(ctx context.Context, name string) (*Origin, error)
	Save(ctx context.Context, o *Origin) (*Origin, error)
}
