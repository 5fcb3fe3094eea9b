package models

import "slices"

// Snapshot is the full in-memory copy of the three store tables.
type Snapshot struct {
	Members  []Member
	Services []Service

	// Payments are ordered newest first.
	Payments []Payment
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Members:  slices.Clone(s.Members),
		Services: make([]Service, len(s.Services)),
		Payments: slices.Clone(s.Payments),
	}
	for i, svc := range s.Services {
		out.Services[i] = svc.Clone()
	}
	return out
}

// Member returns the member with the given ID.
func (s Snapshot) Member(id string) (Member, bool) {
	i := slices.IndexFunc(s.Members, func(m Member) bool { return m.ID == id })
	if i < 0 {
		return Member{}, false
	}
	return s.Members[i], true
}

// Service returns the service with the given ID.
func (s Snapshot) Service(id string) (Service, bool) {
	i := slices.IndexFunc(s.Services, func(svc Service) bool { return svc.ID == id })
	if i < 0 {
		return Service{}, false
	}
	return s.Services[i].Clone(), true
}
