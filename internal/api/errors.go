package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/tsgate/internal/gateway"
	"github.com/nerrad567/tsgate/internal/influx"
)

// errorResponse is the single error shape every failure returns.
type errorResponse struct {
	Error string `json:"error"`
}

// messageResponse is the shape of successful write/update/delete responses.
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes an error response as {"error": message}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeNotFound writes the catch-all 404 response.
func writeNotFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "Not found")
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, message)
}

// statusForError maps a gateway/store error to an HTTP status code.
//
// Client faults (validation, malformed input) are 400. Anything that went
// wrong between the gateway and the store, including a store response the
// gateway could not parse, is 502. Everything else is a 500.
func statusForError(err error) int {
	var upstream *influx.UpstreamError

	switch {
	case errors.Is(err, gateway.ErrValidation), errors.Is(err, gateway.ErrParse):
		return http.StatusBadRequest
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.Is(err, influx.ErrUnreachable),
		errors.Is(err, influx.ErrBadResponse),
		errors.Is(err, influx.ErrNotConnected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeGatewayError logs and writes a failed data-plane operation.
//
// Upstream rejections echo the store's status and message so callers can
// see what the store objected to; other classes return a stable message
// per status to avoid leaking internals.
func (s *Server) writeGatewayError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)

	s.logger.Error("data operation failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
		"request_id", r.Context().Value(ctxKeyRequestID),
	)

	var upstream *influx.UpstreamError
	switch {
	case status == http.StatusBadRequest:
		writeError(w, status, err.Error())
	case errors.As(err, &upstream):
		writeError(w, status, upstream.Error())
	case status == http.StatusBadGateway:
		writeError(w, status, "time-series store unavailable")
	default:
		writeInternalError(w, "internal server error")
	}
}
