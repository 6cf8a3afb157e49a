// Package urgency classifies assignment due dates into urgency levels.
package urgency

import "time"

// Level is the urgency bucket stored on an assignment.
type Level string

const (
	// None means the assignment has no due date.
	None Level = "none"
	// Overdue means the due date has passed.
	Overdue Level = "overdue"
	// Urgent means the due date is within 7 days.
	Urgent Level = "urgent"
	// Soon means the due date is within 30 days.
	Soon Level = "soon"
	// Normal means the due date is more than 30 days out.
	Normal Level = "normal"
)

// Classify buckets a due date relative to today. Comparison is at day
// granularity: a due date of today is urgent, not overdue.
func Classify(due *time.Time, today time.Time) Level {
	if due == nil {
		return None
	}

	days := daysBetween(today, *due)
	switch {
	case days < 0:
		return Overdue
	case days <= 7:
		return Urgent
	case days <= 30:
		return Soon
	default:
		return Normal
	}
}

// daysBetween returns the whole-day difference from a to b, ignoring the
// time of day of both.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	at := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bt := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bt.Sub(at).Hours() / 24)
}
