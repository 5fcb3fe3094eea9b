package tracker

import (
	"strconv"

	"github.com/mmynk/streamsplit/internal/calculator"
	"github.com/mmynk/streamsplit/internal/models"
)

// ReportFilter narrows the payment history. MemberID is a member ID or
// calculator.AllMembers; Year is a four-digit year.
type ReportFilter struct {
	MemberID string
	Year     string
}

// viewState is what the user is looking at. Changing it never touches the store.
type viewState struct {
	month  models.Month
	filter ReportFilter
}

func defaultFilter(t *Tracker) ReportFilter {
	return ReportFilter{
		MemberID: calculator.AllMembers,
		Year:     strconv.Itoa(t.now().Year()),
	}
}

// SelectedMonth returns the month the dashboard is computed for.
func (t *Tracker) SelectedMonth() models.Month {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.view.month
}

// PrevMonth moves the selection one month back and returns it.
func (t *Tracker) PrevMonth() models.Month {
	return t.shiftMonth(-1)
}

// NextMonth moves the selection one month forward and returns it.
func (t *Tracker) NextMonth() models.Month {
	return t.shiftMonth(1)
}

// ShiftMonth moves the selection by n months and returns it.
func (t *Tracker) ShiftMonth(n int) models.Month {
	return t.shiftMonth(n)
}

func (t *Tracker) shiftMonth(n int) models.Month {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view.month = t.view.month.AddMonths(n)
	return t.view.month
}

// SelectMonth sets the selected month. A zero month selects the current one.
func (t *Tracker) SelectMonth(m models.Month) {
	if m.IsZero() {
		m = models.MonthOf(t.now())
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view.month = m
}

// ReportFilter returns the current report filter.
func (t *Tracker) ReportFilter() ReportFilter {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.view.filter
}

// SetReportFilter replaces the report filter. Empty fields fall back to
// all members and the current year.
func (t *Tracker) SetReportFilter(f ReportFilter) ReportFilter {
	f = t.normalizeFilter(f)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view.filter = f
	return f
}

func (t *Tracker) normalizeFilter(f ReportFilter) ReportFilter {
	def := defaultFilter(t)
	if f.MemberID == "" {
		f.MemberID = def.MemberID
	}
	if f.Year == "" {
		f.Year = def.Year
	}
	return f
}
