package owner

import (
	"context"
	"database/sql"
	"fmt"

	id "legaldocs/pkg/domain"
	"legaldocs/pkg/platform/sentinel"
	"legaldocs/pkg/platform/tx"
)

// PostgresStateStore persists owner compliance states in PostgreSQL.
// Joins an ambient transaction when one is present, so the rollup write can
// share the document transition's unit of work.
type PostgresStateStore struct {
	db *sql.DB
}

func NewPostgresStateStore(db *sql.DB) *PostgresStateStore {
	return &PostgresStateStore{db: db}
}

func (s *PostgresStateStore) exec(ctx context.Context) interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
} {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

func (s *PostgresStateStore) Get(ctx context.Context, ref id.OwnerRef) (*ComplianceState, error) {
	query := `
		SELECT legal_state, legal_state_changed_at
		FROM owner_compliance
		WHERE owner_kind = $1 AND owner_id = $2
	`
	state := ComplianceState{Owner: ref}
	var raw string
	err := s.exec(ctx).QueryRowContext(ctx, query, ref.Kind, int64(ref.ID)).
		Scan(&raw, &state.LegalStateChangedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get owner compliance state: %w", err)
	}
	state.LegalState = LegalState(raw)
	return &state, nil
}

func (s *PostgresStateStore) Upsert(ctx context.Context, state *ComplianceState) error {
	query := `
		INSERT INTO owner_compliance (owner_kind, owner_id, legal_state, legal_state_changed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_kind, owner_id) DO UPDATE SET
			legal_state = EXCLUDED.legal_state,
			legal_state_changed_at = EXCLUDED.legal_state_changed_at
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		state.Owner.Kind,
		int64(state.Owner.ID),
		string(state.LegalState),
		state.LegalStateChangedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert owner compliance state: %w", err)
	}
	return nil
}
