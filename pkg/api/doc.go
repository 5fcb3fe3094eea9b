// Package api defines the HouseholdService RPC surface: the message types,
// procedure paths, a Connect codec for them, a typed client and the handler
// constructor used by the server.
//
// Messages are plain Go structs carried as JSON. Requests and responses that
// have no fields use google.protobuf.Empty, which the codec encodes with
// protojson so any Connect client can call them.
package api
