// Package influx provides InfluxDB v2 connectivity for tsgate.
//
// It wraps the official v2 client with synchronous write, raw Flux
// query, and predicate delete operations, plus a standalone parser for
// the annotated-CSV query response format.
//
// # Purpose
//
// This package is the gateway's only transport to the time-series
// backend. Every CRUD operation the HTTP surface exposes reduces to one
// or two calls here:
//   - create/update: WritePoint
//   - read: QueryRaw + ParseAnnotatedCSV
//   - update/delete: DeletePredicate
//
// # Error Handling
//
// All operations return synchronously so failures map to the caller's
// response. The taxonomy separates three faults a caller must
// distinguish:
//   - *UpstreamError: the backend answered non-2xx (data rejected)
//   - ErrUnreachable: timeout or transport failure (backend down)
//   - ErrBadResponse: the backend answered with an unparsable payload
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// Each call carries its own context-derived timeout; the client keeps
// no per-request state.
package influx
