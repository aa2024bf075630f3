package origin

import (
	"context"
	"sync"

	"factgate/pkg/domain"
	"factgate/pkg/platform/sentinel"
)

// MemoryRegistry is an in-memory Registry for tests and development.
type MemoryRegistry struct {
	mu     sync.RWMutex
	byID   map[domain.OriginID]*Origin
	byName map[string]*Origin
}

// NewMemoryRegistry returns an empty MemoryRegistry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byID:   map[domain.OriginID]*Origin{},
		byName: map[string]*Origin{},
	}
}

func (r *MemoryRegistry) GetByID(_ context.Context, id domain.OriginID) (*Origin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (r *MemoryRegistry) GetByName(_ context.Context, name string) (*Origin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byName[name]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (r *MemoryRegistry) Save(_ context.Context, o *Origin) (*Origin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byID[o.ID]; ok {
		delete(r.byName, prev.Name)
	}
	copied := *o
	r.byID[o.ID] = &copied
	r.byName[o.Name] = &copied
	result := copied
	return &result, nil
}
