package models

import (
	"fmt"
	"time"
)

// Payment records that a member settled their share for one month.
// At most one Payment exists per (MemberID, Month).
type Payment struct {
	// ID is the store-assigned identifier (UUID format).
	ID string

	// MemberID is the member who paid.
	MemberID string

	// Month is the label of the settled month as it was written, e.g. "febrero de 2026".
	Month string

	// Period is the structured form of Month. It is zero for legacy records
	// whose label could not be parsed; those only match by exact label.
	Period Month

	// Date is the es-MX formatted date the payment was marked, e.g. "15/10/2026".
	// It is the real-world action date, never the settled month.
	Date string

	// RecordedAt is the instant the payment was marked. Payments are listed newest first.
	RecordedAt time.Time
}

// Matches reports whether the payment settles the target month.
func (p Payment) Matches(target Month) bool {
	if !p.Period.IsZero() {
		return p.Period == target
	}
	return p.Month == target.Label()
}

// PaymentDraft is a payment the store has not assigned an ID to yet.
type PaymentDraft struct {
	MemberID   string
	Month      string
	Period     Month
	Date       string
	RecordedAt time.Time
}

// NewPaymentDraft builds the payment recorded when memberID is marked paid
// for target at instant now.
func NewPaymentDraft(memberID string, target Month, now time.Time) PaymentDraft {
	return PaymentDraft{
		MemberID:   memberID,
		Month:      target.Label(),
		Period:     target,
		Date:       FormatPaymentDate(now),
		RecordedAt: now,
	}
}

// FormatPaymentDate formats t the way es-MX short dates are written: day/month/year
// without zero padding ("5/10/2026").
func FormatPaymentDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}
