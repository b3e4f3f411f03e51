package owner

import (
	"context"
	"sync"

	id "legaldocs/pkg/domain"
	"legaldocs/pkg/platform/sentinel"
)

// InMemoryStateStore keeps owner compliance states in process memory.
type InMemoryStateStore struct {
	mu     sync.RWMutex
	states map[id.OwnerRef]*ComplianceState
}

func NewMemoryStateStore() *InMemoryStateStore {
	return &InMemoryStateStore{states: make(map[id.OwnerRef]*ComplianceState)}
}

func (s *InMemoryStateStore) Get(_ context.Context, ref id.OwnerRef) (*ComplianceState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[ref]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *state
	return &cp, nil
}

func (s *InMemoryStateStore) Upsert(_ context.Context, state *ComplianceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *state
	s.states[state.Owner] = &cp
	return nil
}
