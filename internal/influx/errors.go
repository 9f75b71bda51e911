package influx

import (
	"errors"
	"fmt"
)

// Sentinel errors for InfluxDB operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, influx.ErrUnreachable) {
//	    // Backend is down, not rejecting data
//	}
var (
	// ErrNotConnected indicates the client is not connected to InfluxDB.
	ErrNotConnected = errors.New("influx: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("influx: connection failed")

	// ErrUnreachable indicates an outbound call timed out or the
	// connection was refused. Distinct from UpstreamError so callers can
	// tell "the backend is down" from "the backend rejected the data".
	ErrUnreachable = errors.New("influx: backend unreachable")

	// ErrBadResponse indicates the backend answered with a payload the
	// client could not parse.
	ErrBadResponse = errors.New("influx: malformed response")
)

// UpstreamError reports a completed call that InfluxDB answered with a
// non-2xx status. Status and message are preserved for diagnosability.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("influx: upstream status %d: %s", e.Status, e.Message)
}
