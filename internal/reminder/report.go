package reminder

import (
	id "legaldocs/pkg/domain"
)

// SweepStatus classifies how a sweep run ended.
type SweepStatus string

const (
	// SweepCompleted means the sweep examined due documents and produced
	// per-owner outcomes.
	SweepCompleted SweepStatus = "completed"
	// SweepFeatureDisabled means reminders are switched off.
	SweepFeatureDisabled SweepStatus = "feature_disabled"
	// SweepNoThreshold means no positive reminder window is configured.
	SweepNoThreshold SweepStatus = "no_threshold_configured"
	// SweepNothingToRemind means no due, unreminded documents were found.
	SweepNothingToRemind SweepStatus = "nothing_to_remind"
	// SweepLockHeld means another run holds the sweep lock.
	SweepLockHeld SweepStatus = "lock_held"
)

// Outcome is the per-owner result of one sweep.
type Outcome string

const (
	OutcomeReminded Outcome = "reminded"
	OutcomeFailed   Outcome = "failed"
	OutcomeSkipped  Outcome = "skipped"
)

// OwnerOutcome records what happened for one owner during a sweep.
type OwnerOutcome struct {
	Owner   id.OwnerRef `json:"owner"`
	Outcome Outcome     `json:"outcome"`
	// Reason explains failed and skipped outcomes.
	Reason string `json:"reason,omitempty"`
	// Documents counts the documents covered by the reminder.
	Documents int `json:"documents"`
}

// Report summarizes one sweep run.
type Report struct {
	Status   SweepStatus    `json:"status"`
	Outcomes []OwnerOutcome `json:"outcomes,omitempty"`
}

// Reminded counts owners that received a reminder.
func (r Report) Reminded() int { return r.count(OutcomeReminded) }

// Failed counts owners whose reminder could not be delivered.
func (r Report) Failed() int { return r.count(OutcomeFailed) }

func (r Report) count(o Outcome) int {
	n := 0
	for _, out := range r.Outcomes {
		if out.Outcome == o {
			n++
		}
	}
	return n
}
