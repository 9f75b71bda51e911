// Package logging provides structured logging for tsgate.
//
// It wraps log/slog with service-wide default fields, level parsing,
// and a helper for redacting credentials in diagnostic output.
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("influxdb connected", "token", logging.TokenPreview(token))
package logging
