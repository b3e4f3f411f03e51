package doctype

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"legaldocs/internal/document/models"
	id "legaldocs/pkg/domain"
	"legaldocs/pkg/platform/sentinel"
)

// PostgresStore persists document types in PostgreSQL. Pure I/O; the
// applicability rules live in the service and registry.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, dt *models.DocumentType) error {
	query := `
		INSERT INTO document_types (id, title, description, cannot_expire, mandatory, apply_only_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(dt.ID),
		dt.Title,
		dt.Description,
		dt.CannotExpire,
		dt.Mandatory,
		pq.Array(dt.ApplicableOwnerKinds),
		dt.CreatedAt,
		dt.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create document type: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, dt *models.DocumentType) error {
	query := `
		UPDATE document_types
		SET title = $2, description = $3, cannot_expire = $4, mandatory = $5, apply_only_to = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(dt.ID),
		dt.Title,
		dt.Description,
		dt.CannotExpire,
		dt.Mandatory,
		pq.Array(dt.ApplicableOwnerKinds),
		dt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, typeID id.DocumentTypeID) (*models.DocumentType, error) {
	query := `
		SELECT id, title, description, cannot_expire, mandatory, apply_only_to, created_at, updated_at
		FROM document_types
		WHERE id = $1
	`
	dt, err := scanDocumentType(s.db.QueryRowContext(ctx, query, uuid.UUID(typeID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find document type: %w", err)
	}
	return dt, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.DocumentType, error) {
	query := `
		SELECT id, title, description, cannot_expire, mandatory, apply_only_to, created_at, updated_at
		FROM document_types
		ORDER BY title ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list document types: %w", err)
	}
	defer rows.Close()

	var out []*models.DocumentType
	for rows.Next() {
		dt, err := scanDocumentType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document type: %w", err)
		}
		out = append(out, dt)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocumentType(row rowScanner) (*models.DocumentType, error) {
	var dt models.DocumentType
	var typeID uuid.UUID
	var kinds pq.StringArray
	if err := row.Scan(&typeID, &dt.Title, &dt.Description, &dt.CannotExpire, &dt.Mandatory, &kinds, &dt.CreatedAt, &dt.UpdatedAt); err != nil {
		return nil, err
	}
	dt.ID = id.DocumentTypeID(typeID)
	dt.ApplicableOwnerKinds = []string(kinds)
	return &dt, nil
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}
