package tracker

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError is returned when input is refused before any store call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a failed store call. The local snapshot is left as
// it was before the operation started.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// CascadeError is returned by RemoveMember when the member was deleted but
// some of the services it belonged to could not be updated in the store.
type CascadeError struct {
	MemberID string

	// Failed maps service ID to the error returned while updating it.
	Failed map[string]error
}

// ServiceIDs returns the failed service IDs in sorted order.
func (e *CascadeError) ServiceIDs() []string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("member %s removed but %d service(s) were not updated: %s",
		e.MemberID, len(e.Failed), strings.Join(e.ServiceIDs(), ", "))
}

func (e *CascadeError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, id := range e.ServiceIDs() {
		errs = append(errs, e.Failed[id])
	}
	return errs
}
