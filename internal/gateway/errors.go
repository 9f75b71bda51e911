package gateway

import "errors"

// Sentinel errors for gateway operations. The HTTP layer maps these to
// response status codes with errors.Is.
var (
	// ErrValidation indicates the caller supplied a structurally valid but
	// semantically unacceptable data point (missing measurement, no fields).
	ErrValidation = errors.New("gateway: validation failed")

	// ErrParse indicates the caller's input could not be decoded at all.
	ErrParse = errors.New("gateway: malformed input")
)
