package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
)

// HouseholdServiceHandler is implemented by the server.
type HouseholdServiceHandler interface {
	GetDashboard(context.Context, *connect.Request[GetDashboardRequest]) (*connect.Response[DashboardResponse], error)
	ShiftMonth(context.Context, *connect.Request[ShiftMonthRequest]) (*connect.Response[ShiftMonthResponse], error)
	ListMembers(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[ListMembersResponse], error)
	AddMember(context.Context, *connect.Request[AddMemberRequest]) (*connect.Response[AddMemberResponse], error)
	RemoveMember(context.Context, *connect.Request[RemoveMemberRequest]) (*connect.Response[emptypb.Empty], error)
	ListServices(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[ListServicesResponse], error)
	AddService(context.Context, *connect.Request[AddServiceRequest]) (*connect.Response[AddServiceResponse], error)
	RemoveService(context.Context, *connect.Request[RemoveServiceRequest]) (*connect.Response[emptypb.Empty], error)
	ToggleServiceMember(context.Context, *connect.Request[ToggleServiceMemberRequest]) (*connect.Response[ToggleServiceMemberResponse], error)
	TogglePayment(context.Context, *connect.Request[TogglePaymentRequest]) (*connect.Response[TogglePaymentResponse], error)
	GetReport(context.Context, *connect.Request[GetReportRequest]) (*connect.Response[ReportResponse], error)
	Reload(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error)
}

// NewHouseholdServiceHandler builds an HTTP handler for every procedure.
// It returns the path to mount the handler on.
func NewHouseholdServiceHandler(svc HouseholdServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(GetDashboardProcedure, connect.NewUnaryHandler(GetDashboardProcedure, svc.GetDashboard, opts...))
	mux.Handle(ShiftMonthProcedure, connect.NewUnaryHandler(ShiftMonthProcedure, svc.ShiftMonth, opts...))
	mux.Handle(ListMembersProcedure, connect.NewUnaryHandler(ListMembersProcedure, svc.ListMembers, opts...))
	mux.Handle(AddMemberProcedure, connect.NewUnaryHandler(AddMemberProcedure, svc.AddMember, opts...))
	mux.Handle(RemoveMemberProcedure, connect.NewUnaryHandler(RemoveMemberProcedure, svc.RemoveMember, opts...))
	mux.Handle(ListServicesProcedure, connect.NewUnaryHandler(ListServicesProcedure, svc.ListServices, opts...))
	mux.Handle(AddServiceProcedure, connect.NewUnaryHandler(AddServiceProcedure, svc.AddService, opts...))
	mux.Handle(RemoveServiceProcedure, connect.NewUnaryHandler(RemoveServiceProcedure, svc.RemoveService, opts...))
	mux.Handle(ToggleServiceMemberProcedure, connect.NewUnaryHandler(ToggleServiceMemberProcedure, svc.ToggleServiceMember, opts...))
	mux.Handle(TogglePaymentProcedure, connect.NewUnaryHandler(TogglePaymentProcedure, svc.TogglePayment, opts...))
	mux.Handle(GetReportProcedure, connect.NewUnaryHandler(GetReportProcedure, svc.GetReport, opts...))
	mux.Handle(ReloadProcedure, connect.NewUnaryHandler(ReloadProcedure, svc.Reload, opts...))

	return "/" + ServiceName + "/", mux
}

// Client is a typed HouseholdService client.
type Client struct {
	getDashboard        *connect.Client[GetDashboardRequest, DashboardResponse]
	shiftMonth          *connect.Client[ShiftMonthRequest, ShiftMonthResponse]
	listMembers         *connect.Client[emptypb.Empty, ListMembersResponse]
	addMember           *connect.Client[AddMemberRequest, AddMemberResponse]
	removeMember        *connect.Client[RemoveMemberRequest, emptypb.Empty]
	listServices        *connect.Client[emptypb.Empty, ListServicesResponse]
	addService          *connect.Client[AddServiceRequest, AddServiceResponse]
	removeService       *connect.Client[RemoveServiceRequest, emptypb.Empty]
	toggleServiceMember *connect.Client[ToggleServiceMemberRequest, ToggleServiceMemberResponse]
	togglePayment       *connect.Client[TogglePaymentRequest, TogglePaymentResponse]
	getReport           *connect.Client[GetReportRequest, ReportResponse]
	reload              *connect.Client[emptypb.Empty, emptypb.Empty]
}

// NewClient creates a client for the server at baseURL, e.g. "http://localhost:8080".
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)

	return &Client{
		getDashboard:        connect.NewClient[GetDashboardRequest, DashboardResponse](httpClient, baseURL+GetDashboardProcedure, opts...),
		shiftMonth:          connect.NewClient[ShiftMonthRequest, ShiftMonthResponse](httpClient, baseURL+ShiftMonthProcedure, opts...),
		listMembers:         connect.NewClient[emptypb.Empty, ListMembersResponse](httpClient, baseURL+ListMembersProcedure, opts...),
		addMember:           connect.NewClient[AddMemberRequest, AddMemberResponse](httpClient, baseURL+AddMemberProcedure, opts...),
		removeMember:        connect.NewClient[RemoveMemberRequest, emptypb.Empty](httpClient, baseURL+RemoveMemberProcedure, opts...),
		listServices:        connect.NewClient[emptypb.Empty, ListServicesResponse](httpClient, baseURL+ListServicesProcedure, opts...),
		addService:          connect.NewClient[AddServiceRequest, AddServiceResponse](httpClient, baseURL+AddServiceProcedure, opts...),
		removeService:       connect.NewClient[RemoveServiceRequest, emptypb.Empty](httpClient, baseURL+RemoveServiceProcedure, opts...),
		toggleServiceMember: connect.NewClient[ToggleServiceMemberRequest, ToggleServiceMemberResponse](httpClient, baseURL+ToggleServiceMemberProcedure, opts...),
		togglePayment:       connect.NewClient[TogglePaymentRequest, TogglePaymentResponse](httpClient, baseURL+TogglePaymentProcedure, opts...),
		getReport:           connect.NewClient[GetReportRequest, ReportResponse](httpClient, baseURL+GetReportProcedure, opts...),
		reload:              connect.NewClient[emptypb.Empty, emptypb.Empty](httpClient, baseURL+ReloadProcedure, opts...),
	}
}

func call[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], req *Req) (*Res, error) {
	resp, err := c.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) GetDashboard(ctx context.Context, req *GetDashboardRequest) (*DashboardResponse, error) {
	return call(ctx, c.getDashboard, req)
}

func (c *Client) ShiftMonth(ctx context.Context, req *ShiftMonthRequest) (*ShiftMonthResponse, error) {
	return call(ctx, c.shiftMonth, req)
}

func (c *Client) ListMembers(ctx context.Context) (*ListMembersResponse, error) {
	return call(ctx, c.listMembers, &emptypb.Empty{})
}

func (c *Client) AddMember(ctx context.Context, req *AddMemberRequest) (*AddMemberResponse, error) {
	return call(ctx, c.addMember, req)
}

func (c *Client) RemoveMember(ctx context.Context, req *RemoveMemberRequest) error {
	_, err := call(ctx, c.removeMember, req)
	return err
}

func (c *Client) ListServices(ctx context.Context) (*ListServicesResponse, error) {
	return call(ctx, c.listServices, &emptypb.Empty{})
}

func (c *Client) AddService(ctx context.Context, req *AddServiceRequest) (*AddServiceResponse, error) {
	return call(ctx, c.addService, req)
}

func (c *Client) RemoveService(ctx context.Context, req *RemoveServiceRequest) error {
	_, err := call(ctx, c.removeService, req)
	return err
}

func (c *Client) ToggleServiceMember(ctx context.Context, req *ToggleServiceMemberRequest) (*ToggleServiceMemberResponse, error) {
	return call(ctx, c.toggleServiceMember, req)
}

func (c *Client) TogglePayment(ctx context.Context, req *TogglePaymentRequest) (*TogglePaymentResponse, error) {
	return call(ctx, c.togglePayment, req)
}

func (c *Client) GetReport(ctx context.Context, req *GetReportRequest) (*ReportResponse, error) {
	return call(ctx, c.getReport, req)
}

// Reload makes the server re-read the store.
func (c *Client) Reload(ctx context.Context) error {
	_, err := call(ctx, c.reload, &emptypb.Empty{})
	return err
}
