package fact

import (
	"context"
	"sync"

	"factgate/pkg/platform/sentinel"
)

// MemoryTypeRegistry serves fact-type definitions from memory. Definitions
// are loaded at startup and never change during a run.
type MemoryTypeRegistry struct {
	mu     sync.RWMutex
	byName map[string]TypeDefinition
}

func NewMemoryTypeRegistry(definitions ...TypeDefinition) *MemoryTypeRegistry {
	r := &MemoryTypeRegistry{byName: make(map[string]TypeDefinition, len(definitions))}
	for _, def := range definitions {
		r.byName[def.Name] = def
	}
	return r
}

// Register adds or replaces a definition.
func (r *MemoryTypeRegistry) Register(def TypeDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[def.Name] = def
}

func (r *MemoryTypeRegistry) GetByName(_ context.Context, name string) (*TypeDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byName[name]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &def, nil
}
