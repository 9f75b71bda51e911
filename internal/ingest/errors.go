package ingest

import "errors"

// Sentinel errors for the ingest bridge.
var (
	// ErrConnectionFailed indicates the initial broker connection failed.
	ErrConnectionFailed = errors.New("ingest: connection failed")

	// ErrSubscribeFailed indicates the topic subscription was rejected.
	ErrSubscribeFailed = errors.New("ingest: subscribe failed")

	// ErrNotConnected indicates an operation on a disconnected bridge.
	ErrNotConnected = errors.New("ingest: not connected")
)
