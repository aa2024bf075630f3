// Package trigger delivers domain events raised by the ingestion pipeline to
// downstream consumers. Delivery is fire-and-forget from the emitting
// service's perspective: the pipeline hands the event off and moves on,
// transport failures are the dispatcher's problem.
package trigger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"factgate/pkg/domain"
)

// FactAdded is raised once for every successful fact ingestion, whether the
// pipeline created a new record or refreshed an existing one.
const FactAdded = "FactAdded"

// ParamAddedFact keys the created/updated fact in an event's context
// parameters.
const ParamAddedFact = "addedFact"

// Event is a named domain event scoped to an organization and an access
// mode. Consumers use the scope to decide who may observe the event; the
// context parameters carry the result objects themselves.
type Event struct {
	ID                uuid.UUID              `json:"id"`
	Name              string                 `json:"name"`
	Timestamp         time.Time              `json:"timestamp"`
	OrganizationID    domain.OrganizationID  `json:"organizationId"`
	AccessMode        domain.AccessMode      `json:"accessMode"`
	ContextParameters map[string]any         `json:"contextParameters,omitempty"`
}

// NewEvent stamps a fresh event with an ID and the current time.
func NewEvent(name string, orgID domain.OrganizationID, mode domain.AccessMode) Event {
	return Event{
		ID:             uuid.New(),
		Name:           name,
		Timestamp:      time.Now().UTC(),
		OrganizationID: orgID,
		AccessMode:     mode,
	}
}

// WithParameter attaches a named result object and returns the event.
func (e Event) WithParameter(key string, value any) Event {
	if e.ContextParameters == nil {
		e.ContextParameters = make(map[string]any, 1)
	}
	e.ContextParameters[key] = value
	return e
}

// Publisher delivers events to a transport.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
