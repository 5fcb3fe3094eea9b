package api

// ServiceName is the fully-qualified name of the HouseholdService.
const ServiceName = "streamsplit.v1.HouseholdService"

// Procedure paths, in the form Connect routes on.
const (
	GetDashboardProcedure        = "/" + ServiceName + "/GetDashboard"
	ShiftMonthProcedure          = "/" + ServiceName + "/ShiftMonth"
	ListMembersProcedure         = "/" + ServiceName + "/ListMembers"
	AddMemberProcedure           = "/" + ServiceName + "/AddMember"
	RemoveMemberProcedure        = "/" + ServiceName + "/RemoveMember"
	ListServicesProcedure        = "/" + ServiceName + "/ListServices"
	AddServiceProcedure          = "/" + ServiceName + "/AddService"
	RemoveServiceProcedure       = "/" + ServiceName + "/RemoveService"
	ToggleServiceMemberProcedure = "/" + ServiceName + "/ToggleServiceMember"
	TogglePaymentProcedure       = "/" + ServiceName + "/TogglePayment"
	GetReportProcedure           = "/" + ServiceName + "/GetReport"
	ReloadProcedure              = "/" + ServiceName + "/Reload"
)
