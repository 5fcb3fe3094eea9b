package models

import "time"

// Member is a person sharing subscription costs.
// Removing a member strips its ID from every Service.MemberIDs.
type Member struct {
	// ID is the store-assigned identifier (UUID format).
	ID string

	// Name is the display name (e.g., "Alice").
	Name string

	// CreatedAt is when the member was added. Members are listed in this order.
	CreatedAt time.Time
}
