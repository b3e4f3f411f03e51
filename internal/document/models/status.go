package models

import dErrors "legaldocs/pkg/domain-errors"

// Status is the per-document review outcome. All three states are mutually
// reachable; there is no terminal state.
type Status string

const (
	StatusWaiting Status = "Waiting"
	StatusValid   Status = "Valid"
	StatusInvalid Status = "Invalid"
)

// ParseStatus validates a status value from an external surface.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusWaiting, StatusValid, StatusInvalid:
		return Status(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown document status: "+s)
}

// IsValid reports whether the status is one of the three known values.
func (s Status) IsValid() bool {
	return s == StatusWaiting || s == StatusValid || s == StatusInvalid
}
