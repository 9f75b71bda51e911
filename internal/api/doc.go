// Package api implements the HTTP REST surface of the time-series gateway.
//
// This package provides:
//   - CRUD endpoints over /data backed by the gateway service
//   - A liveness endpoint at /health and a Prometheus endpoint at /metrics
//   - Optional JWT bearer authentication on the data routes
//   - Middleware stack (request ID, logging, recovery, CORS, body limits)
//
// # Error contract
//
// Every error response is a JSON object with a single "error" key. Requests
// that match no route, including wrong-method requests on known paths,
// return 404 with {"error": "Not found"}. Gateway errors are mapped by
// class: validation and malformed input to 400, configuration faults to
// 500, and upstream or connectivity failures to 502.
//
// The server follows the same lifecycle pattern as the other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
