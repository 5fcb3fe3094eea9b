package api

import "time"

// Months travel as "YYYY-MM" keys. An empty month means the month currently
// selected on the server.

type Member struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Cost      float64   `json:"cost"`
	MemberIDs []string  `json:"member_ids"`
	Share     float64   `json:"share"`
	CreatedAt time.Time `json:"created_at"`
}

type Payment struct {
	ID       string `json:"id"`
	MemberID string `json:"member_id"`
	// Month is the stored label, e.g. "febrero de 2026"; Period is its key
	// form, empty for labels that could not be parsed.
	Month      string    `json:"month"`
	Period     string    `json:"period,omitempty"`
	Date       string    `json:"date"`
	RecordedAt time.Time `json:"recorded_at,omitzero"`
}

type MemberDebt struct {
	MemberID     string  `json:"member_id"`
	Name         string  `json:"name"`
	TotalDue     float64 `json:"total_due"`
	TotalDueText string  `json:"total_due_text"`
	Paid         bool    `json:"paid"`
	PaymentID    string  `json:"payment_id,omitempty"`
	PaymentDate  string  `json:"payment_date,omitempty"`
}

type ServiceShare struct {
	ServiceID   string  `json:"service_id"`
	Name        string  `json:"name"`
	Cost        float64 `json:"cost"`
	MemberCount int     `json:"member_count"`
	Share       float64 `json:"share"`
}

type GetDashboardRequest struct {
	Month string `json:"month,omitempty"`
}

type DashboardResponse struct {
	Month        string         `json:"month"`
	MonthLabel   string         `json:"month_label"`
	TotalCost    float64        `json:"total_cost"`
	MemberCount  int            `json:"member_count"`
	ServiceCount int            `json:"service_count"`
	PaidCount    int            `json:"paid_count"`
	Debts        []MemberDebt   `json:"debts"`
	Services     []ServiceShare `json:"services"`
}

type ShiftMonthRequest struct {
	// Delta is the number of months to move; negative goes back.
	Delta int `json:"delta"`
}

type ShiftMonthResponse struct {
	Month      string `json:"month"`
	MonthLabel string `json:"month_label"`
}

type ListMembersResponse struct {
	Members []Member `json:"members"`
}

type AddMemberRequest struct {
	Name string `json:"name"`
}

type AddMemberResponse struct {
	Member Member `json:"member"`
}

type RemoveMemberRequest struct {
	ID string `json:"id"`
}

type ListServicesResponse struct {
	Services []Service `json:"services"`
}

type AddServiceRequest struct {
	Name string `json:"name"`
	// Cost is kept as text so "12,5" is accepted the same as "12.5".
	Cost string `json:"cost"`
}

type AddServiceResponse struct {
	Service Service `json:"service"`
}

type RemoveServiceRequest struct {
	ID string `json:"id"`
}

type ToggleServiceMemberRequest struct {
	ServiceID string `json:"service_id"`
	MemberID  string `json:"member_id"`
}

type ToggleServiceMemberResponse struct {
	Service Service `json:"service"`
}

type TogglePaymentRequest struct {
	MemberID string `json:"member_id"`
	Month    string `json:"month,omitempty"`
}

type TogglePaymentResponse struct {
	Paid    bool    `json:"paid"`
	Payment Payment `json:"payment"`
}

type GetReportRequest struct {
	// MemberID is a member ID or "all". Empty fields keep the server's current filter.
	MemberID string `json:"member_id,omitempty"`
	Year     string `json:"year,omitempty"`
}

type ReportEntry struct {
	Payment    Payment `json:"payment"`
	MemberName string  `json:"member_name"`
}

type ReportResponse struct {
	MemberID string        `json:"member_id"`
	Year     string        `json:"year"`
	Entries  []ReportEntry `json:"entries"`
	Years    []string      `json:"years"`
}
