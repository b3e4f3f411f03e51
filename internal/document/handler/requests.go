package handler

import (
	"strings"
	"time"

	id "legaldocs/pkg/domain"
	dErrors "legaldocs/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// CreateDocumentRequest is the HTTP request body for POST /documents.
type CreateDocumentRequest struct {
	TypeID         string `json:"type_id"`
	OwnerKind      string `json:"owner_kind"`
	OwnerID        int64  `json:"owner_id"`
	ExpirationDate string `json:"expiration_date,omitempty"`
	Notes          string `json:"notes,omitempty"`

	// Parsed values (populated by Validate)
	parsedTypeID     id.DocumentTypeID
	parsedOwner      id.OwnerRef
	parsedExpiration *time.Time
}

// Validate validates and parses the request.
func (r *CreateDocumentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.TypeID = strings.TrimSpace(r.TypeID)
	if r.TypeID == "" {
		return dErrors.New(dErrors.CodeValidation, "type_id is required")
	}
	typeID, err := id.ParseDocumentTypeID(r.TypeID)
	if err != nil {
		return err
	}
	r.parsedTypeID = typeID

	owner, err := id.NewOwnerRef(strings.TrimSpace(r.OwnerKind), id.OwnerID(r.OwnerID))
	if err != nil {
		return err
	}
	r.parsedOwner = owner

	if r.ExpirationDate != "" {
		t, err := time.Parse(dateLayout, r.ExpirationDate)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "expiration_date must be YYYY-MM-DD")
		}
		r.parsedExpiration = &t
	}

	if len(r.Notes) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "notes must be at most 2000 characters")
	}
	return nil
}

// ParsedTypeID returns the validated document type ID.
func (r *CreateDocumentRequest) ParsedTypeID() id.DocumentTypeID { return r.parsedTypeID }

// ParsedOwner returns the validated owner reference.
func (r *CreateDocumentRequest) ParsedOwner() id.OwnerRef { return r.parsedOwner }

// ParsedExpiration returns the validated expiration date, nil when unset.
func (r *CreateDocumentRequest) ParsedExpiration() *time.Time { return r.parsedExpiration }

// CreateTypeRequest is the HTTP request body for POST /document-types.
type CreateTypeRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	CannotExpire bool     `json:"cannot_expire,omitempty"`
	Mandatory    bool     `json:"mandatory,omitempty"`
	ApplyOnlyTo  []string `json:"apply_only_to,omitempty"`
}

// Validate validates the request.
func (r *CreateTypeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(r.Title) > 255 {
		return dErrors.New(dErrors.CodeValidation, "title must be at most 255 characters")
	}
	for i, kind := range r.ApplyOnlyTo {
		r.ApplyOnlyTo[i] = strings.TrimSpace(kind)
		if r.ApplyOnlyTo[i] == "" {
			return dErrors.New(dErrors.CodeValidation, "apply_only_to entries must not be empty")
		}
	}
	return nil
}

// ForceStateRequest is the HTTP request body for PUT /owners/.../state.
type ForceStateRequest struct {
	State string `json:"state"`
}

// Validate validates the request. State value parsing stays in the owner
// package so the accepted set has one source of truth.
func (r *ForceStateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.State) == "" {
		return dErrors.New(dErrors.CodeValidation, "state is required")
	}
	return nil
}
