// Package gateway implements the CRUD service layer between the HTTP API
// and the time-series store.
//
// The service translates domain operations (create, list, update, delete)
// into store calls: line-protocol writes, Flux queries, and predicate
// deletes. It depends on a narrow TimeSeries interface so the HTTP layer
// and tests never touch the InfluxDB client directly.
//
// Updates are append-only: an update writes a replacement point and then
// removes the prior points carrying the same identifier tag. The write is
// authoritative; a failed cleanup is logged and the update still succeeds.
package gateway
