package calculator

import (
	"math"
	"strconv"

	"github.com/mmynk/streamsplit/internal/models"
)

// ComputePerServiceShare returns what each participant of the service owes.
// A service with no participants divides by one.
func ComputePerServiceShare(service models.Service) float64 {
	return service.Cost / float64(service.ParticipantCount())
}

// ComputeTotalCost returns the undivided sum of all service costs.
func ComputeTotalCost(services []models.Service) float64 {
	var total float64
	for _, s := range services {
		total += s.Cost
	}
	return total
}

// ComputeMemberDebts computes, for every member and the target month, the
// amount due across the services they participate in and whether they paid.
//
// The result has one entry per member in input order. Shares are accumulated
// unrounded; only TotalDueText is rounded to cents.
func ComputeMemberDebts(members []models.Member, services []models.Service, payments []models.Payment, target models.Month) []models.MemberDebt {
	debts := make([]models.MemberDebt, len(members))
	for i, member := range members {
		var totalDue float64
		for _, s := range services {
			if s.HasMember(member.ID) {
				totalDue += ComputePerServiceShare(s)
			}
		}

		debt := models.MemberDebt{
			MemberID:     member.ID,
			Name:         member.Name,
			TotalDue:     totalDue,
			TotalDueText: FormatAmount(totalDue),
		}
		if p, ok := FindPayment(payments, member.ID, target); ok {
			debt.Paid = true
			debt.PaymentID = p.ID
			debt.PaymentDate = p.Date
		}
		debts[i] = debt
	}
	return debts
}

// ComputeServiceShares returns the per-service breakdown in input order.
func ComputeServiceShares(services []models.Service) []models.ServiceShare {
	shares := make([]models.ServiceShare, len(services))
	for i, s := range services {
		shares[i] = models.ServiceShare{
			ServiceID:   s.ID,
			Name:        s.Name,
			Cost:        s.Cost,
			MemberCount: len(s.MemberIDs),
			Share:       ComputePerServiceShare(s),
		}
	}
	return shares
}

// FindPayment returns the payment settling target for memberID, if any.
func FindPayment(payments []models.Payment, memberID string, target models.Month) (models.Payment, bool) {
	for _, p := range payments {
		if p.MemberID == memberID && p.Matches(target) {
			return p, true
		}
	}
	return models.Payment{}, false
}

// RoundCents rounds v half away from zero to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatAmount renders v with exactly two decimals ("7.50").
func FormatAmount(v float64) string {
	return strconv.FormatFloat(RoundCents(v), 'f', 2, 64)
}
