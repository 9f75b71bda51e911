package secrets

import "errors"

// ErrResolve indicates credential resolution failed.
//
// Callers can detect it with errors.Is(); it maps to a configuration
// fault (HTTP 500), distinct from upstream time-series failures.
var ErrResolve = errors.New("secrets: resolution failed")
