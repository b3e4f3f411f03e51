package document

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"legaldocs/internal/document/models"
	id "legaldocs/pkg/domain"
	"legaldocs/pkg/platform/sentinel"
	"legaldocs/pkg/platform/tx"
)

// PostgresStore persists documents in PostgreSQL. Pure I/O; effective
// validity and urgency are computed in the document module.
//
// All methods join an ambient transaction from pkg/platform/tx when one is
// present, so a status transition and its rollup write share a unit of work.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

const documentColumns = `id, type_id, owner_kind, owner_id, status, expiration_date, notes, reviewed_at, reviewed_by, reminded_at, file_ref, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.q(ctx).ExecContext(ctx, query, documentArgs(doc)...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, doc *models.Document) error {
	query := `
		UPDATE documents
		SET type_id = $2, owner_kind = $3, owner_id = $4, status = $5, expiration_date = $6,
		    notes = $7, reviewed_at = $8, reviewed_by = $9, reminded_at = $10, file_ref = $11,
		    created_at = $12, updated_at = $13
		WHERE id = $1
	`
	res, err := s.q(ctx).ExecContext(ctx, query, documentArgs(doc)...)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(docID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner id.OwnerRef) ([]*models.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_kind = $1 AND owner_id = $2
		ORDER BY expiration_date ASC NULLS LAST, created_at ASC
	`
	return s.list(ctx, query, owner.Kind, int64(owner.ID))
}

func (s *PostgresStore) FindByOwnerAndType(ctx context.Context, owner id.OwnerRef, typeID id.DocumentTypeID) (*models.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_kind = $1 AND owner_id = $2 AND type_id = $3
		LIMIT 1
	`
	doc, err := scanDocument(s.q(ctx).QueryRowContext(ctx, query, owner.Kind, int64(owner.ID), uuid.UUID(typeID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find document by owner and type: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) ListExpiringUnreminded(ctx context.Context, cutoff time.Time) ([]*models.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE expiration_date IS NOT NULL
		  AND expiration_date < $1
		  AND reminded_at IS NULL
		  AND owner_id <> 0
		ORDER BY expiration_date ASC, created_at ASC
	`
	return s.list(ctx, query, cutoff)
}

// MarkReminded stamps RemindedAt in one statement. The reminded_at IS NULL
// guard keeps a concurrent sweep from moving an existing stamp.
func (s *PostgresStore) MarkReminded(ctx context.Context, ids []id.DocumentID, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]uuid.UUID, len(ids))
	for i, docID := range ids {
		raw[i] = uuid.UUID(docID)
	}
	query := `
		UPDATE documents
		SET reminded_at = $1, updated_at = $1
		WHERE id = ANY($2) AND reminded_at IS NULL
	`
	if _, err := s.q(ctx).ExecContext(ctx, query, now, pq.Array(raw)); err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	return nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Document, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func documentArgs(doc *models.Document) []any {
	var reviewedBy any
	if doc.ReviewedBy != nil {
		reviewedBy = uuid.UUID(*doc.ReviewedBy)
	}
	var fileRef any
	if doc.FileRef != "" {
		fileRef = doc.FileRef
	}
	return []any{
		uuid.UUID(doc.ID),
		uuid.UUID(doc.TypeID),
		doc.Owner.Kind,
		int64(doc.Owner.ID),
		string(doc.Status),
		doc.ExpirationDate,
		doc.Notes,
		doc.ReviewedAt,
		reviewedBy,
		doc.RemindedAt,
		fileRef,
		doc.CreatedAt,
		doc.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		doc        models.Document
		docID      uuid.UUID
		typeID     uuid.UUID
		ownerID    int64
		status     string
		reviewedBy uuid.NullUUID
		fileRef    sql.NullString
	)
	err := row.Scan(
		&docID, &typeID, &doc.Owner.Kind, &ownerID, &status,
		&doc.ExpirationDate, &doc.Notes, &doc.ReviewedAt, &reviewedBy,
		&doc.RemindedAt, &fileRef, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.ID = id.DocumentID(docID)
	doc.TypeID = id.DocumentTypeID(typeID)
	doc.Owner.ID = id.OwnerID(ownerID)
	doc.Status = models.Status(status)
	if reviewedBy.Valid {
		r := id.ReviewerID(reviewedBy.UUID)
		doc.ReviewedBy = &r
	}
	doc.FileRef = fileRef.String
	return &doc, nil
}
