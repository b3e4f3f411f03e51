package document

import (
	"context"
	"sort"
	"sync"
	"time"

	"legaldocs/internal/document/models"
	id "legaldocs/pkg/domain"
	"legaldocs/pkg/platform/sentinel"
)

// InMemoryStore keeps documents in process memory, guarded by a RWMutex.
// Query methods mirror the postgres store so services are store-agnostic.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[id.DocumentID]*models.Document
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{docs: make(map[id.DocumentID]*models.Document)}
}

func (s *InMemoryStore) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *doc
	s.docs[doc.ID] = &cp
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.ID]; !exists {
		return sentinel.ErrNotFound
	}
	cp := *doc
	s.docs[doc.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, docID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.docs[docID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

// ListByOwner returns the owner's documents sorted by expiration date
// ascending with undated documents last, matching the source's default sort.
func (s *InMemoryStore) ListByOwner(_ context.Context, owner id.OwnerRef) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Document
	for _, doc := range s.docs {
		if doc.Owner == owner {
			cp := *doc
			out = append(out, &cp)
		}
	}
	sortByExpiration(out)
	return out, nil
}

func (s *InMemoryStore) FindByOwnerAndType(_ context.Context, owner id.OwnerRef, typeID id.DocumentTypeID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.docs {
		if doc.Owner == owner && doc.TypeID == typeID {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// ListExpiringUnreminded selects the sweep's working set: documents with an
// expiration date strictly before the cutoff, a resolvable owner, and no
// reminder stamp.
func (s *InMemoryStore) ListExpiringUnreminded(_ context.Context, cutoff time.Time) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Document
	for _, doc := range s.docs {
		if doc.ExpirationDate == nil || doc.RemindedAt != nil || doc.Owner.IsZero() {
			continue
		}
		if doc.ExpirationDate.Before(cutoff) {
			cp := *doc
			out = append(out, &cp)
		}
	}
	sortByExpiration(out)
	return out, nil
}

// MarkReminded stamps RemindedAt on the given documents. Documents already
// stamped are left untouched so a concurrent sweep cannot move the stamp.
func (s *InMemoryStore) MarkReminded(_ context.Context, ids []id.DocumentID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, docID := range ids {
		doc, exists := s.docs[docID]
		if !exists || doc.RemindedAt != nil {
			continue
		}
		t := now
		doc.RemindedAt = &t
		doc.UpdatedAt = now
	}
	return nil
}

func sortByExpiration(docs []*models.Document) {
	sort.Slice(docs, func(i, j int) bool {
		di, dj := docs[i].ExpirationDate, docs[j].ExpirationDate
		switch {
		case di == nil && dj == nil:
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})
}
