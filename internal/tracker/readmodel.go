package tracker

import (
	"github.com/mmynk/streamsplit/internal/calculator"
	"github.com/mmynk/streamsplit/internal/models"
)

// UnknownMemberName is shown for payments whose member no longer exists.
const UnknownMemberName = "Desconocido"

// Dashboard is the per-month summary.
type Dashboard struct {
	Month      models.Month
	MonthLabel string

	TotalCost    float64
	MemberCount  int
	ServiceCount int
	PaidCount    int

	Debts    []models.MemberDebt
	Services []models.ServiceShare
}

// Dashboard computes the summary for target from the current snapshot.
func (t *Tracker) Dashboard(target models.Month) Dashboard {
	t.mu.RLock()
	snap := t.snap
	d := Dashboard{
		Month:        target,
		MonthLabel:   target.Title(),
		TotalCost:    calculator.ComputeTotalCost(snap.Services),
		MemberCount:  len(snap.Members),
		ServiceCount: len(snap.Services),
		Debts:        calculator.ComputeMemberDebts(snap.Members, snap.Services, snap.Payments, target),
		Services:     calculator.ComputeServiceShares(snap.Services),
	}
	t.mu.RUnlock()

	for _, debt := range d.Debts {
		if debt.Paid {
			d.PaidCount++
		}
	}
	return d
}

// ReportEntry is one payment joined with its member's name.
type ReportEntry struct {
	Payment    models.Payment
	MemberName string
}

// Report is the filtered payment history.
type Report struct {
	Filter  ReportFilter
	Entries []ReportEntry

	// Years lists the years that can be filtered on, newest first.
	Years []string
}

// Report builds the payment history for filter. Empty filter fields fall
// back to all members and the current year.
func (t *Tracker) Report(filter ReportFilter) Report {
	filter = t.normalizeFilter(filter)
	now := t.now()

	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make(map[string]string, len(t.snap.Members))
	for _, m := range t.snap.Members {
		names[m.ID] = m.Name
	}

	filtered := calculator.FilterPayments(t.snap.Payments, filter.MemberID, filter.Year)
	entries := make([]ReportEntry, len(filtered))
	for i, p := range filtered {
		name, ok := names[p.MemberID]
		if !ok {
			name = UnknownMemberName
		}
		entries[i] = ReportEntry{Payment: p, MemberName: name}
	}

	return Report{
		Filter:  filter,
		Entries: entries,
		Years:   calculator.AvailableYears(t.snap.Payments, now),
	}
}
