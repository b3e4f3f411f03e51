// Package audit records the compliance trail: who changed a document's
// status, when an owner's legal state moved, and what each reminder run did.
// Events are persisted locally and optionally fanned out to a Kafka topic.
package audit

import (
	"time"

	id "legaldocs/pkg/domain"
)

// Action names an auditable occurrence.
type Action string

const (
	ActionDocumentCreated   Action = "document_created"
	ActionDocumentReplaced  Action = "document_replaced"
	ActionStatusChanged     Action = "status_changed"
	ActionLegalStateChanged Action = "legal_state_changed"
	ActionLegalStateForced  Action = "legal_state_forced"
	ActionReminderSent      Action = "reminder_sent"
	ActionReminderFailed    Action = "reminder_failed"
)

// Event is one audit trail entry. Keep it transport-agnostic so stores and
// sinks can fan out.
type Event struct {
	Timestamp  time.Time   `json:"timestamp"`
	Action     Action      `json:"action"`
	Owner      id.OwnerRef `json:"owner"`
	DocumentID string      `json:"document_id,omitempty"`
	Actor      string      `json:"actor,omitempty"`
	Detail     string      `json:"detail,omitempty"`
	RequestID  string      `json:"request_id,omitempty"`
}
