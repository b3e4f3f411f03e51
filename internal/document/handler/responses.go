package handler

import (
	"time"

	"legaldocs/internal/document/models"
	"legaldocs/internal/expiry"
	"legaldocs/internal/owner"
)

// DocumentResponse is the HTTP shape of a document, enriched with the
// expiry facts the admin surfaces render.
type DocumentResponse struct {
	ID             string          `json:"id"`
	TypeID         string          `json:"type_id"`
	TypeTitle      string          `json:"type_title,omitempty"`
	OwnerKind      string          `json:"owner_kind"`
	OwnerID        int64           `json:"owner_id"`
	Status         string          `json:"status"`
	ExpirationDate string          `json:"expiration_date,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	ExpiresIn      string          `json:"expires_in"`
	Urgency        string          `json:"urgency"`
	Review         *ReviewResponse `json:"review,omitempty"`
	RemindedAt     *time.Time      `json:"reminded_at,omitempty"`
	HasFile        bool            `json:"has_file"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ReviewResponse is the review portion of a document response. Omitted when
// the validation workflow is disabled.
type ReviewResponse struct {
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy string     `json:"reviewed_by,omitempty"`
}

// TypeResponse is the HTTP shape of a document type.
type TypeResponse struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	CannotExpire bool     `json:"cannot_expire"`
	Mandatory    bool     `json:"mandatory"`
	ApplyOnlyTo  []string `json:"apply_only_to,omitempty"`
}

// OwnerKindsResponse lists the owner kinds the deployment accepts.
type OwnerKindsResponse struct {
	OwnerKinds []string `json:"owner_kinds"`
}

// StateResponse is the HTTP shape of an owner's compliance state.
type StateResponse struct {
	OwnerKind  string `json:"owner_kind"`
	OwnerID    int64  `json:"owner_id"`
	LegalState string `json:"legal_state"`
}

type documentView struct {
	thresholdDays   int
	workflowEnabled bool
}

func (v documentView) fromDocument(doc *models.Document, docType *models.DocumentType, now time.Time) *DocumentResponse {
	facts := expiry.Evaluate(doc.ExpirationDate, now, v.thresholdDays)
	if docType != nil && docType.CannotExpire {
		facts = expiry.Evaluate(nil, now, v.thresholdDays)
	}

	resp := &DocumentResponse{
		ID:         doc.ID.String(),
		TypeID:     doc.TypeID.String(),
		OwnerKind:  doc.Owner.Kind,
		OwnerID:    int64(doc.Owner.ID),
		Status:     string(doc.Status),
		Notes:      doc.Notes,
		ExpiresIn:  facts.Describe(),
		Urgency:    string(doc.UrgencyClass(docType, now, v.thresholdDays, v.workflowEnabled)),
		RemindedAt: doc.RemindedAt,
		HasFile:    doc.FileRef != "",
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
	if docType != nil {
		resp.TypeTitle = docType.Title
	}
	if doc.ExpirationDate != nil {
		resp.ExpirationDate = doc.ExpirationDate.Format(dateLayout)
	}
	if v.workflowEnabled && (doc.ReviewedAt != nil || doc.ReviewedBy != nil) {
		review := &ReviewResponse{ReviewedAt: doc.ReviewedAt}
		if doc.ReviewedBy != nil {
			review.ReviewedBy = doc.ReviewedBy.String()
		}
		resp.Review = review
	}
	return resp
}

func fromType(dt *models.DocumentType) *TypeResponse {
	return &TypeResponse{
		ID:           dt.ID.String(),
		Title:        dt.Title,
		Description:  dt.Description,
		CannotExpire: dt.CannotExpire,
		Mandatory:    dt.Mandatory,
		ApplyOnlyTo:  dt.ApplicableOwnerKinds,
	}
}

func fromState(kind string, ownerID int64, state owner.LegalState) *StateResponse {
	return &StateResponse{OwnerKind: kind, OwnerID: ownerID, LegalState: string(state)}
}
