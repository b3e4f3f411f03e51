package models

import (
	"time"

	"legaldocs/internal/expiry"
	id "legaldocs/pkg/domain"
	dErrors "legaldocs/pkg/domain-errors"
)

// Document is one compliance artifact belonging to exactly one owner.
//
// Invariants:
//   - TypeID is set and Owner resolves to exactly one registered kind/id pair
//   - ReviewedAt/ReviewedBy only change together with Status
//   - RemindedAt, once set, is cleared only by ResetForReplacement, which
//     also resets Status to Waiting
//   - When the type cannot expire, ExpirationDate plays no part in expiry or
//     urgency regardless of its stored value
type Document struct {
	ID             id.DocumentID   `json:"id"`
	TypeID         id.DocumentTypeID `json:"type_id"`
	Owner          id.OwnerRef     `json:"owner"`
	Status         Status          `json:"status"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	ReviewedAt     *time.Time      `json:"reviewed_at,omitempty"`
	ReviewedBy     *id.ReviewerID  `json:"reviewed_by,omitempty"`
	RemindedAt     *time.Time      `json:"reminded_at,omitempty"`
	// FileRef is the opaque handle to the externally stored binary. Empty
	// when no file has been attached yet.
	FileRef   string    `json:"file_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDocument constructs a document in the Waiting state.
func NewDocument(docID id.DocumentID, typeID id.DocumentTypeID, owner id.OwnerRef, now time.Time) (*Document, error) {
	if typeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "document type is required")
	}
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "document must have an owner")
	}
	return &Document{
		ID:        docID,
		TypeID:    typeID,
		Owner:     owner,
		Status:    StatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ApplyStatus transitions the document to the given status. ReviewedAt and
// ReviewedBy are stamped only when the status actually changes, so repeated
// marks with the same status leave the review record untouched.
func (d *Document) ApplyStatus(status Status, reviewer id.ReviewerID, now time.Time) {
	if d.Status != status {
		d.ReviewedAt = &now
		if !reviewer.IsNil() {
			r := reviewer
			d.ReviewedBy = &r
		}
	}
	d.Status = status
	d.UpdatedAt = now
}

// ResetForReplacement clears the review and reminder trail when the owner
// uploads a replacement file. This is the one path that clears RemindedAt.
func (d *Document) ResetForReplacement(now time.Time) {
	d.Status = StatusWaiting
	d.ExpirationDate = nil
	d.Notes = ""
	d.ReviewedAt = nil
	d.ReviewedBy = nil
	d.RemindedAt = nil
	d.UpdatedAt = now
}

// MarkReminded records a confirmed reminder delivery that covered this document.
func (d *Document) MarkReminded(now time.Time) {
	t := now
	d.RemindedAt = &t
	d.UpdatedAt = now
}

// IsExpired reports whether the document's expiration date has passed.
// Always false for types that cannot expire or documents without a date.
func (d *Document) IsExpired(docType *DocumentType, now time.Time) bool {
	if docType != nil && docType.CannotExpire {
		return false
	}
	return expiry.Evaluate(d.ExpirationDate, now, 0).IsExpired
}

// IsEffectivelyValid combines the review status with expiration as a union:
// an unreviewed (Waiting) document that has not expired counts as valid, and
// an Invalid document is still reported valid while its date has not passed.
// This mirrors the source system; neither predicate is the strict negation of
// the other.
func (d *Document) IsEffectivelyValid(docType *DocumentType, now time.Time) bool {
	return d.Status == StatusValid || !d.IsExpired(docType, now)
}

// IsEffectivelyInvalid reports a document that was rejected or has expired.
// A Waiting, unexpired document is neither effectively valid by status nor
// effectively invalid.
func (d *Document) IsEffectivelyInvalid(docType *DocumentType, now time.Time) bool {
	return d.Status == StatusInvalid || d.IsExpired(docType, now)
}

// UrgencyClass derives the display-priority tag for triage surfaces.
//
// An expired or Invalid document is always red. Inside the reminder threshold
// window the class is amber. With the validation workflow enabled the review
// status drives the remainder (Waiting amber, Valid green); without it the
// class falls back to the pure expiration tier.
func (d *Document) UrgencyClass(docType *DocumentType, now time.Time, thresholdDays int, workflowEnabled bool) expiry.Tier {
	noDate := d.ExpirationDate == nil || (docType != nil && docType.CannotExpire)
	if noDate {
		if workflowEnabled {
			switch d.Status {
			case StatusInvalid:
				return expiry.TierRed
			case StatusValid:
				return expiry.TierGreen
			case StatusWaiting:
				return expiry.TierAmber
			}
		}
		return expiry.TierNone
	}

	facts := expiry.Evaluate(d.ExpirationDate, now, thresholdDays)
	switch {
	case facts.IsExpired, d.Status == StatusInvalid:
		return expiry.TierRed
	case facts.Tier == expiry.TierAmber:
		return expiry.TierAmber
	}
	if workflowEnabled {
		switch d.Status {
		case StatusWaiting:
			return expiry.TierAmber
		case StatusValid:
			return expiry.TierGreen
		}
	}
	return facts.Tier
}
