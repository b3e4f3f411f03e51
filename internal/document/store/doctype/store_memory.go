package doctype

import (
	"context"
	"sort"
	"sync"

	"legaldocs/internal/document/models"
	id "legaldocs/pkg/domain"
	"legaldocs/pkg/platform/sentinel"
)

// InMemoryStore keeps document types in process memory. Used by unit tests
// and single-node development setups.
type InMemoryStore struct {
	mu    sync.RWMutex
	types map[id.DocumentTypeID]*models.DocumentType
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{types: make(map[id.DocumentTypeID]*models.DocumentType)}
}

func (s *InMemoryStore) Create(_ context.Context, dt *models.DocumentType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.types[dt.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *dt
	s.types[dt.ID] = &cp
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, dt *models.DocumentType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.types[dt.ID]; !exists {
		return sentinel.ErrNotFound
	}
	cp := *dt
	s.types[dt.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, typeID id.DocumentTypeID) (*models.DocumentType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dt, exists := s.types[typeID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *dt
	return &cp, nil
}

// List returns all types sorted by title, matching the source's default sort.
func (s *InMemoryStore) List(_ context.Context) ([]*models.DocumentType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.DocumentType, 0, len(s.types))
	for _, dt := range s.types {
		cp := *dt
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}
