// Package expiry derives expiration facts for a document. It is pure: every
// function takes the caller's "now" and never reads a wall clock, which keeps
// the status machine and the reminder sweep testable against fixed dates.
package expiry

import (
	"fmt"
	"time"
)

// Tier classifies how urgently a document needs attention, based purely on
// expiration proximity. Status-aware display classes are layered on top by
// the document module.
type Tier string

const (
	TierNone  Tier = "none"
	TierGreen Tier = "green"
	TierAmber Tier = "amber"
	TierRed   Tier = "red"
)

// Facts are the derived expiration facts for one document.
type Facts struct {
	// IsExpired is false when no expiration date is set.
	IsExpired bool
	// DaysUntilExpiry is nil when no expiration date is set. Negative means
	// already expired.
	DaysUntilExpiry *int
	// Tier is the urgency classification; see Evaluate for the rules.
	Tier Tier
}

// Evaluate computes expiration facts at day precision.
//
// Rules:
//   - no expiration date: not expired, no day count, TierNone
//   - expired (date strictly before today): TierRed regardless of threshold
//   - thresholdDays > 0 and fewer days remain than the threshold: TierAmber
//   - thresholdDays > 0 and more days remain than the threshold: TierGreen
//   - otherwise TierNone (no threshold configured, or exactly on it)
func Evaluate(expirationDate *time.Time, now time.Time, thresholdDays int) Facts {
	if expirationDate == nil {
		return Facts{Tier: TierNone}
	}

	days := daysBetween(now, *expirationDate)
	f := Facts{
		IsExpired:       days < 0,
		DaysUntilExpiry: &days,
	}

	switch {
	case f.IsExpired:
		f.Tier = TierRed
	case thresholdDays > 0 && days < thresholdDays:
		f.Tier = TierAmber
	case thresholdDays > 0 && days > thresholdDays:
		f.Tier = TierGreen
	default:
		f.Tier = TierNone
	}
	return f
}

// Describe renders the facts as a human summary for list and detail surfaces.
func (f Facts) Describe() string {
	if f.DaysUntilExpiry == nil {
		return "no expiration date"
	}
	d := *f.DaysUntilExpiry
	if d < 0 {
		return fmt.Sprintf("expired since %d days", -d)
	}
	return fmt.Sprintf("expires in %d days", d)
}

// daysBetween returns the signed whole-day difference to - from, comparing
// calendar days in the "from" location.
func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	f := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
