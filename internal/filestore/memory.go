package filestore

import (
	"context"
	"sync"

	"legaldocs/pkg/platform/sentinel"
)

// InMemoryStore keeps file bytes in process memory. Tests and development only.
type InMemoryStore struct {
	mu    sync.RWMutex
	files map[FileRef][]byte
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{files: make(map[FileRef][]byte)}
}

func (s *InMemoryStore) Store(_ context.Context, data []byte, suggestedName string) (FileRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := FileRef(suggestedName)
	cp := make([]byte, len(data))
	copy(cp, data)
	s.files[ref] = cp
	return ref, nil
}

func (s *InMemoryStore) Delete(_ context.Context, ref FileRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[ref]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.files, ref)
	return nil
}

func (s *InMemoryStore) Exists(_ context.Context, ref FileRef) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.files[ref]
	return ok, nil
}
