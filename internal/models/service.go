package models

import (
	"slices"
	"time"
)

// Service is a recurring paid subscription (e.g., "Netflix") whose monthly
// cost is split equally among its participating members.
type Service struct {
	// ID is the store-assigned identifier (UUID format).
	ID string

	// Name is the display name of the subscription.
	Name string

	// Cost is the monthly cost. Always positive.
	Cost float64

	// MemberIDs lists the participating members.
	// Order carries no meaning but is preserved as stored; an ID appears at most once.
	MemberIDs []string

	// CreatedAt is when the service was added. Services are listed in this order.
	CreatedAt time.Time
}

// HasMember reports whether memberID participates in the service.
func (s Service) HasMember(memberID string) bool {
	return slices.Contains(s.MemberIDs, memberID)
}

// ParticipantCount returns the divisor used to split the cost.
// A service with no participants counts as one so the share stays defined.
func (s Service) ParticipantCount() int {
	return max(1, len(s.MemberIDs))
}

// WithMemberToggled returns the participant list with memberID added when
// absent or removed when present. The receiver is not modified.
func (s Service) WithMemberToggled(memberID string) []string {
	if s.HasMember(memberID) {
		return s.WithoutMember(memberID)
	}
	ids := make([]string, 0, len(s.MemberIDs)+1)
	ids = append(ids, s.MemberIDs...)
	return append(ids, memberID)
}

// WithoutMember returns the participant list without memberID.
func (s Service) WithoutMember(memberID string) []string {
	ids := make([]string, 0, len(s.MemberIDs))
	for _, id := range s.MemberIDs {
		if id != memberID {
			ids = append(ids, id)
		}
	}
	return ids
}

// Clone returns a copy that shares no memory with s.
func (s Service) Clone() Service {
	s.MemberIDs = slices.Clone(s.MemberIDs)
	if s.MemberIDs == nil {
		s.MemberIDs = []string{}
	}
	return s
}
