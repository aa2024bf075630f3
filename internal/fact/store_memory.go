package fact

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"

	"factgate/pkg/domain"
	"factgate/pkg/platform/sentinel"
	pstrings "factgate/pkg/platform/strings"
)

// MemoryStore keeps records in process memory. The single mutex makes
// Create's check-then-insert atomic, which is what gives it the idempotent
// upsert contract.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[domain.FactID]*Record
	byIdentity map[string]domain.FactID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[domain.FactID]*Record),
		byIdentity: make(map[string]domain.FactID),
	}
}

func (s *MemoryStore) GetByID(_ context.Context, id domain.FactID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) RetrieveExisting(_ context.Context, candidate *Record) iter.Seq2[*Record, error] {
	identity := candidate.LogicalIdentity()
	return func(yield func(*Record, error) bool) {
		s.mu.RLock()
		var match *Record
		if id, ok := s.byIdentity[identity]; ok {
			match = s.byID[id].Clone()
		}
		s.mu.RUnlock()
		if match != nil {
			yield(match, nil)
		}
	}
}

func (s *MemoryStore) Create(_ context.Context, record *Record) (*Record, error) {
	identity := record.LogicalIdentity()

	s.mu.Lock()
	defer s.mu.Unlock()
	if existingID, ok := s.byIdentity[identity]; ok {
		// A concurrent writer won the race; their record is the fact.
		return s.byID[existingID].Clone(), nil
	}

	stored := record.Clone()
	now := time.Now().UTC()
	if stored.Timestamp.IsZero() {
		stored.Timestamp = now
	}
	if stored.LastSeen.IsZero() {
		stored.LastSeen = stored.Timestamp
	}
	s.byID[stored.ID] = stored
	s.byIdentity[identity] = stored.ID
	return stored.Clone(), nil
}

// Refresh merges the record's comments and ACL into the stored row instead
// of overwriting it, so two refreshes racing on the same fact both land.
func (s *MemoryStore) Refresh(_ context.Context, record *Record) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[record.ID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	for _, c := range record.Comments {
		if !hasCommentID(stored.Comments, c.ID) {
			stored.Comments = append(stored.Comments, c)
		}
	}
	stored.ACL = pstrings.Dedupe(append(stored.ACL, record.ACL...))
	stored.LastSeen = time.Now().UTC()
	return stored.Clone(), nil
}

func hasCommentID(comments []Comment, id uuid.UUID) bool {
	for _, c := range comments {
		if c.ID == id {
			return true
		}
	}
	return false
}
