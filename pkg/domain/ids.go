// Package domain defines the typed identifiers shared across the legaldocs
// modules. Distinct types for each entity keep a DocumentID from ever being
// passed where a DocumentTypeID is expected; the compiler enforces it.
package domain

import (
	"github.com/google/uuid"

	dErrors "legaldocs/pkg/domain-errors"
)

// DocumentID identifies a single legal document.
type DocumentID uuid.UUID

// DocumentTypeID identifies a category of legal document.
type DocumentTypeID uuid.UUID

// ReviewerID identifies the staff member who reviewed a document.
type ReviewerID uuid.UUID

// OwnerID identifies an owner entity within its kind. Owner records live in
// external directories keyed by integer primary keys, so this is not a UUID.
type OwnerID int64

func (d DocumentID) String() string     { return uuid.UUID(d).String() }
func (d DocumentID) IsNil() bool        { return uuid.UUID(d) == uuid.Nil }
func (t DocumentTypeID) String() string { return uuid.UUID(t).String() }
func (t DocumentTypeID) IsNil() bool    { return uuid.UUID(t) == uuid.Nil }
func (r ReviewerID) String() string     { return uuid.UUID(r).String() }
func (r ReviewerID) IsNil() bool        { return uuid.UUID(r) == uuid.Nil }

// NewDocumentID generates a fresh document ID.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

// NewDocumentTypeID generates a fresh document type ID.
func NewDocumentTypeID() DocumentTypeID { return DocumentTypeID(uuid.New()) }

// ParseDocumentID parses and validates a document ID from its string form.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s, "document id")
	return DocumentID(u), err
}

// ParseDocumentTypeID parses and validates a document type ID from its string form.
func ParseDocumentTypeID(s string) (DocumentTypeID, error) {
	u, err := parseUUID(s, "document type id")
	return DocumentTypeID(u), err
}

// ParseReviewerID parses and validates a reviewer ID from its string form.
func ParseReviewerID(s string) (ReviewerID, error) {
	u, err := parseUUID(s, "reviewer id")
	return ReviewerID(u), err
}

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, what+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, what+" is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, what+" must not be the nil UUID")
	}
	return u, nil
}
