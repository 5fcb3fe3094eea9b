// Package models defines the core domain models for streamsplit.
//
// # Models
//
//   - Member: a person sharing subscription costs
//   - Service: a recurring subscription with a monthly cost, shared by its members
//   - Payment: evidence that a member settled their share for one month
//   - MemberDebt: derived per-month view of what a member owes and whether they paid
//   - Month: a calendar year+month, the unit payments are tracked in
//
// # Design Principles
//
//  1. Relationships are id strings, never pointers (Service.MemberIDs, Payment.MemberID)
//  2. There is no "unpaid" record: the absence of a Payment means unpaid
//  3. Payments carry both a structured Period and the legacy display label;
//     the label is what older stores wrote and is kept for matching them
//  4. Ids are assigned by the store, the domain never invents them
package models
