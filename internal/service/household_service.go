// Package service implements the HouseholdService Connect handlers on top of a tracker.
package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/streamsplit/internal/calculator"
	"github.com/mmynk/streamsplit/internal/models"
	"github.com/mmynk/streamsplit/internal/tracker"
	"github.com/mmynk/streamsplit/pkg/api"
)

// Ensure HouseholdService implements api.HouseholdServiceHandler
var _ api.HouseholdServiceHandler = (*HouseholdService)(nil)

// HouseholdService implements the Connect HouseholdService
type HouseholdService struct {
	tracker *tracker.Tracker
}

// NewHouseholdService creates a new HouseholdService backed by tr.
func NewHouseholdService(tr *tracker.Tracker) *HouseholdService {
	return &HouseholdService{tracker: tr}
}

// resolveMonth parses a "YYYY-MM" key; an empty key means the selected month.
func (s *HouseholdService) resolveMonth(key string) (models.Month, error) {
	if key == "" {
		return s.tracker.SelectedMonth(), nil
	}
	m, err := models.ParseMonthKey(key)
	if err != nil {
		return models.Month{}, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return m, nil
}

// GetDashboard returns debts and totals for a month.
func (s *HouseholdService) GetDashboard(ctx context.Context, req *connect.Request[api.GetDashboardRequest]) (*connect.Response[api.DashboardResponse], error) {
	slog.Info("GetDashboard request received", "month", req.Msg.Month)

	month, err := s.resolveMonth(req.Msg.Month)
	if err != nil {
		return nil, err
	}

	d := s.tracker.Dashboard(month)

	slog.Info("GetDashboard successful",
		"month", month.Key(),
		"members", d.MemberCount,
		"paid", d.PaidCount,
	)

	return connect.NewResponse(dashboardToAPI(d)), nil
}

// ShiftMonth moves the selected month.
func (s *HouseholdService) ShiftMonth(ctx context.Context, req *connect.Request[api.ShiftMonthRequest]) (*connect.Response[api.ShiftMonthResponse], error) {
	slog.Info("ShiftMonth request received", "delta", req.Msg.Delta)

	m := s.tracker.ShiftMonth(req.Msg.Delta)

	return connect.NewResponse(&api.ShiftMonthResponse{
		Month:      m.Key(),
		MonthLabel: m.Title(),
	}), nil
}

// ListMembers returns every member in creation order.
func (s *HouseholdService) ListMembers(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.ListMembersResponse], error) {
	slog.Info("ListMembers request received")

	snap := s.tracker.Snapshot()
	members := make([]api.Member, len(snap.Members))
	for i, m := range snap.Members {
		members[i] = memberToAPI(m)
	}

	return connect.NewResponse(&api.ListMembersResponse{Members: members}), nil
}

// AddMember creates a member.
func (s *HouseholdService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	slog.Info("AddMember request received", "name", req.Msg.Name)

	m, err := s.tracker.AddMember(ctx, req.Msg.Name)
	if err != nil {
		slog.Error("AddMember failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Member created", "member_id", m.ID)

	return connect.NewResponse(&api.AddMemberResponse{Member: memberToAPI(m)}), nil
}

// RemoveMember deletes a member and removes it from every service.
func (s *HouseholdService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[emptypb.Empty], error) {
	slog.Info("RemoveMember request received", "member_id", req.Msg.ID)

	if err := s.tracker.RemoveMember(ctx, req.Msg.ID); err != nil {
		slog.Error("RemoveMember failed", "member_id", req.Msg.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Member removed", "member_id", req.Msg.ID)

	return connect.NewResponse(&emptypb.Empty{}), nil
}

// ListServices returns every service in creation order.
func (s *HouseholdService) ListServices(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.ListServicesResponse], error) {
	slog.Info("ListServices request received")

	snap := s.tracker.Snapshot()
	services := make([]api.Service, len(snap.Services))
	for i, svc := range snap.Services {
		services[i] = serviceToAPI(svc)
	}

	return connect.NewResponse(&api.ListServicesResponse{Services: services}), nil
}

// AddService creates a service with no participants.
func (s *HouseholdService) AddService(ctx context.Context, req *connect.Request[api.AddServiceRequest]) (*connect.Response[api.AddServiceResponse], error) {
	slog.Info("AddService request received", "name", req.Msg.Name, "cost", req.Msg.Cost)

	svc, err := s.tracker.AddService(ctx, req.Msg.Name, req.Msg.Cost)
	if err != nil {
		slog.Error("AddService failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Service created", "service_id", svc.ID, "cost", svc.Cost)

	return connect.NewResponse(&api.AddServiceResponse{Service: serviceToAPI(svc)}), nil
}

// RemoveService deletes a service.
func (s *HouseholdService) RemoveService(ctx context.Context, req *connect.Request[api.RemoveServiceRequest]) (*connect.Response[emptypb.Empty], error) {
	slog.Info("RemoveService request received", "service_id", req.Msg.ID)

	if err := s.tracker.RemoveService(ctx, req.Msg.ID); err != nil {
		slog.Error("RemoveService failed", "service_id", req.Msg.ID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&emptypb.Empty{}), nil
}

// ToggleServiceMember adds or removes a member from a service.
func (s *HouseholdService) ToggleServiceMember(ctx context.Context, req *connect.Request[api.ToggleServiceMemberRequest]) (*connect.Response[api.ToggleServiceMemberResponse], error) {
	slog.Info("ToggleServiceMember request received",
		"service_id", req.Msg.ServiceID,
		"member_id", req.Msg.MemberID,
	)

	svc, err := s.tracker.ToggleMemberInService(ctx, req.Msg.ServiceID, req.Msg.MemberID)
	if err != nil {
		slog.Error("ToggleServiceMember failed", "service_id", req.Msg.ServiceID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.ToggleServiceMemberResponse{Service: serviceToAPI(svc)}), nil
}

// TogglePayment marks a member paid for a month, or unmarks them.
func (s *HouseholdService) TogglePayment(ctx context.Context, req *connect.Request[api.TogglePaymentRequest]) (*connect.Response[api.TogglePaymentResponse], error) {
	slog.Info("TogglePayment request received",
		"member_id", req.Msg.MemberID,
		"month", req.Msg.Month,
	)

	month, err := s.resolveMonth(req.Msg.Month)
	if err != nil {
		return nil, err
	}

	res, err := s.tracker.TogglePayment(ctx, req.Msg.MemberID, month)
	if err != nil {
		slog.Error("TogglePayment failed", "member_id", req.Msg.MemberID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("TogglePayment successful",
		"member_id", req.Msg.MemberID,
		"month", month.Key(),
		"paid", res.Paid,
	)

	return connect.NewResponse(&api.TogglePaymentResponse{
		Paid:    res.Paid,
		Payment: paymentToAPI(res.Payment),
	}), nil
}

// GetReport returns the filtered payment history. Filter fields that are set
// become the new current filter.
func (s *HouseholdService) GetReport(ctx context.Context, req *connect.Request[api.GetReportRequest]) (*connect.Response[api.ReportResponse], error) {
	slog.Info("GetReport request received",
		"member_id", req.Msg.MemberID,
		"year", req.Msg.Year,
	)

	filter := s.tracker.ReportFilter()
	if req.Msg.MemberID != "" {
		filter.MemberID = req.Msg.MemberID
	}
	if req.Msg.Year != "" {
		filter.Year = req.Msg.Year
	}
	filter = s.tracker.SetReportFilter(filter)

	r := s.tracker.Report(filter)

	entries := make([]api.ReportEntry, len(r.Entries))
	for i, e := range r.Entries {
		entries[i] = api.ReportEntry{Payment: paymentToAPI(e.Payment), MemberName: e.MemberName}
	}

	slog.Info("GetReport successful", "entries", len(entries))

	return connect.NewResponse(&api.ReportResponse{
		MemberID: r.Filter.MemberID,
		Year:     r.Filter.Year,
		Entries:  entries,
		Years:    r.Years,
	}), nil
}

// Reload re-reads the store into the tracker.
func (s *HouseholdService) Reload(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error) {
	slog.Info("Reload request received")

	if err := s.tracker.Load(ctx); err != nil {
		slog.Error("Reload failed", "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&emptypb.Empty{}), nil
}

func memberToAPI(m models.Member) api.Member {
	return api.Member{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt}
}

func serviceToAPI(svc models.Service) api.Service {
	return api.Service{
		ID:        svc.ID,
		Name:      svc.Name,
		Cost:      svc.Cost,
		MemberIDs: svc.Clone().MemberIDs,
		Share:     calculator.ComputePerServiceShare(svc),
		CreatedAt: svc.CreatedAt,
	}
}

func paymentToAPI(p models.Payment) api.Payment {
	return api.Payment{
		ID:         p.ID,
		MemberID:   p.MemberID,
		Month:      p.Month,
		Period:     p.Period.Key(),
		Date:       p.Date,
		RecordedAt: p.RecordedAt,
	}
}

func dashboardToAPI(d tracker.Dashboard) *api.DashboardResponse {
	debts := make([]api.MemberDebt, len(d.Debts))
	for i, debt := range d.Debts {
		debts[i] = api.MemberDebt{
			MemberID:     debt.MemberID,
			Name:         debt.Name,
			TotalDue:     debt.TotalDue,
			TotalDueText: debt.TotalDueText,
			Paid:         debt.Paid,
			PaymentID:    debt.PaymentID,
			PaymentDate:  debt.PaymentDate,
		}
	}

	shares := make([]api.ServiceShare, len(d.Services))
	for i, sh := range d.Services {
		shares[i] = api.ServiceShare{
			ServiceID:   sh.ServiceID,
			Name:        sh.Name,
			Cost:        sh.Cost,
			MemberCount: sh.MemberCount,
			Share:       sh.Share,
		}
	}

	return &api.DashboardResponse{
		Month:        d.Month.Key(),
		MonthLabel:   d.MonthLabel,
		TotalCost:    calculator.RoundCents(d.TotalCost),
		MemberCount:  d.MemberCount,
		ServiceCount: d.ServiceCount,
		PaidCount:    d.PaidCount,
		Debts:        debts,
		Services:     shares,
	}
}
