package domain

import (
	"fmt"

	dErrors "legaldocs/pkg/domain-errors"
)

// OwnerRef is the tagged reference from a document to the single entity that
// owns it. The source system modelled this as several nullable foreign keys
// with a runtime scan to find the populated one; here "exactly one owner" is
// a construction-time invariant instead.
//
// Kind is validated against the owner kind registry at the service boundary;
// this type only enforces the structural invariant (non-empty kind, non-zero
// id).
type OwnerRef struct {
	Kind string  `json:"kind"`
	ID   OwnerID `json:"id"`
}

// NewOwnerRef builds a validated owner reference.
func NewOwnerRef(kind string, id OwnerID) (OwnerRef, error) {
	if kind == "" {
		return OwnerRef{}, dErrors.New(dErrors.CodeValidation, "owner kind is required")
	}
	if id <= 0 {
		return OwnerRef{}, dErrors.New(dErrors.CodeValidation, "owner id must be positive")
	}
	return OwnerRef{Kind: kind, ID: id}, nil
}

// IsZero reports whether the reference is unset.
func (r OwnerRef) IsZero() bool { return r.Kind == "" && r.ID == 0 }

func (r OwnerRef) String() string { return fmt.Sprintf("%s/%d", r.Kind, r.ID) }
