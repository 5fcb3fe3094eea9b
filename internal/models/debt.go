package models

// MemberDebt is the computed view of one member for the selected month.
type MemberDebt struct {
	MemberID string
	Name     string

	// TotalDue is the unrounded sum of the member's shares.
	TotalDue float64

	// TotalDueText is TotalDue rounded for display ("7.50").
	TotalDueText string

	// Paid is true when a Payment exists for the member and month.
	Paid bool

	// PaymentID and PaymentDate describe that Payment; empty when unpaid.
	PaymentID   string
	PaymentDate string
}

// ServiceShare is the per-service breakdown shown next to the debts.
type ServiceShare struct {
	ServiceID   string
	Name        string
	Cost        float64
	MemberCount int

	// Share is Cost divided by max(1, MemberCount).
	Share float64
}
