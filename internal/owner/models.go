// Package owner holds the owner-side compliance state and the directory port
// through which the core reaches owner records it does not own.
package owner

import (
	"time"

	id "legaldocs/pkg/domain"
	dErrors "legaldocs/pkg/domain-errors"
)

// LegalState is the owner-level rollup of document validity.
type LegalState string

const (
	// LegalStateNone means the owner has no documents to judge.
	LegalStateNone LegalState = "None"
	// LegalStateValid means every document is effectively valid.
	LegalStateValid LegalState = "Valid"
	// LegalStateInvalid means at least one document is effectively invalid.
	LegalStateInvalid LegalState = "Invalid"
)

// ParseLegalState validates a legal state from an external surface.
func ParseLegalState(s string) (LegalState, error) {
	switch LegalState(s) {
	case LegalStateNone, LegalStateValid, LegalStateInvalid:
		return LegalState(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown legal state: "+s)
}

// ComplianceState is the persisted rollup for one owner.
//
// LegalStateChangedAt moves only when LegalState actually changes value;
// recomputations that confirm the current state write nothing.
type ComplianceState struct {
	Owner               id.OwnerRef `json:"owner"`
	LegalState          LegalState  `json:"legal_state"`
	LegalStateChangedAt *time.Time  `json:"legal_state_changed_at,omitempty"`
}

// Apply records a transition to the given state. Returns false when the
// state is unchanged and nothing was modified.
func (c *ComplianceState) Apply(state LegalState, now time.Time) bool {
	if c.LegalState == state {
		return false
	}
	c.LegalState = state
	t := now
	c.LegalStateChangedAt = &t
	return true
}
