package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	id "legaldocs/pkg/domain"
)

// Store is the append-only persistence port for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByOwner(ctx context.Context, ref id.OwnerRef) ([]Event, error)
}

// InMemoryStore keeps events in memory for tests and development.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, ref id.OwnerRef) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, e := range s.events {
		if e.Owner == ref {
			out = append(out, e)
		}
	}
	return out, nil
}

// PostgresStore persists audit events in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (occurred_at, action, owner_kind, owner_id, document_id, actor, detail, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp,
		string(event.Action),
		event.Owner.Kind,
		int64(event.Owner.ID),
		nullIfEmpty(event.DocumentID),
		nullIfEmpty(event.Actor),
		event.Detail,
		nullIfEmpty(event.RequestID),
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ref id.OwnerRef) ([]Event, error) {
	query := `
		SELECT occurred_at, action, owner_kind, owner_id, document_id, actor, detail, request_id
		FROM audit_events
		WHERE owner_kind = $1 AND owner_id = $2
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, ref.Kind, int64(ref.ID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e          Event
			action     string
			ownerID    int64
			documentID sql.NullString
			actor      sql.NullString
			requestID  sql.NullString
		)
		if err := rows.Scan(&e.Timestamp, &action, &e.Owner.Kind, &ownerID, &documentID, &actor, &e.Detail, &requestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = Action(action)
		e.Owner.ID = id.OwnerID(ownerID)
		e.DocumentID = documentID.String
		e.Actor = actor.String
		e.RequestID = requestID.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
