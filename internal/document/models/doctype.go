package models

import (
	"time"

	id "legaldocs/pkg/domain"
	dErrors "legaldocs/pkg/domain-errors"
)

// DocumentType is a category of required document ("Proof of Address", ...).
//
// Invariants:
//   - Title is non-empty
//   - ApplicableOwnerKinds empty means the type applies to every owner kind
//
// Types are referenced by documents and never deleted while referenced;
// referential integrity is the storage layer's concern.
type DocumentType struct {
	ID          id.DocumentTypeID `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	// CannotExpire excludes documents of this type from expiration-based
	// urgency regardless of any stored expiration date.
	CannotExpire bool `json:"cannot_expire"`
	// Mandatory marks types whose absence makes an owner non-compliant.
	// Enforced by upstream form validation, carried here for those surfaces.
	Mandatory            bool      `json:"mandatory"`
	ApplicableOwnerKinds []string  `json:"applicable_owner_kinds,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// NewDocumentType constructs a validated document type.
func NewDocumentType(typeID id.DocumentTypeID, title, description string, now time.Time) (*DocumentType, error) {
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "document type title is required")
	}
	return &DocumentType{
		ID:          typeID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
