package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/tsgate/internal/gateway"
	"github.com/nerrad567/tsgate/internal/observability/metrics"
)

// handleHealth reports process liveness. It deliberately does not probe
// the time-series store: a slow or down store must not make the gateway
// itself look dead to orchestrators.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   s.version,
	})
}

// handleNotFound is the catch-all for unmatched routes and methods.
func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeNotFound(w)
}

// decodePoint decodes a request body into a DataPoint. Decode failures
// wrap gateway.ErrParse so they map to 400.
func decodePoint(r *http.Request) (gateway.DataPoint, error) {
	var point gateway.DataPoint
	if err := json.NewDecoder(r.Body).Decode(&point); err != nil {
		return gateway.DataPoint{}, fmt.Errorf("%w: invalid JSON body: %v", gateway.ErrParse, err)
	}
	return point, nil
}

// handleCreate writes a single data point.
//
//	POST /data
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	point, err := decodePoint(r)
	if err == nil {
		err = s.gateway.Create(r.Context(), point)
	}
	if err != nil {
		metrics.IncDataOperation("create", "error")
		s.writeGatewayError(w, r, err)
		return
	}

	metrics.IncDataOperation("create", "success")
	writeJSON(w, http.StatusCreated, messageResponse{Message: "Data created successfully"})
}

// queryOptionsFromRequest builds QueryOptions from the URL query string.
//
// start and end take RFC3339 timestamps; limit takes a positive integer;
// measurement filters by measurement name. Any other parameter is treated
// as a tag filter.
func queryOptionsFromRequest(r *http.Request) (gateway.QueryOptions, error) {
	var opts gateway.QueryOptions

	query := r.URL.Query()
	for key, values := range query {
		if len(values) == 0 || values[0] == "" {
			continue
		}
		value := values[0]

		switch key {
		case "start":
			t, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return opts, fmt.Errorf("%w: invalid start %q: expected RFC3339 timestamp", gateway.ErrParse, value)
			}
			opts.Start = t
		case "end":
			t, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return opts, fmt.Errorf("%w: invalid end %q: expected RFC3339 timestamp", gateway.ErrParse, value)
			}
			opts.End = t
		case "limit":
			limit, err := strconv.Atoi(value)
			if err != nil || limit <= 0 {
				return opts, fmt.Errorf("%w: invalid limit %q: expected positive integer", gateway.ErrParse, value)
			}
			opts.Limit = limit
		case "measurement":
			opts.Measurement = value
		default:
			if opts.Filters == nil {
				opts.Filters = make(map[string]string)
			}
			opts.Filters[key] = value
		}
	}

	return opts, nil
}

// handleList queries data points.
//
//	GET /data?start=...&end=...&limit=...&measurement=...&<tag>=<value>
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	opts, err := queryOptionsFromRequest(r)
	if err != nil {
		metrics.IncDataOperation("list", "error")
		s.writeGatewayError(w, r, err)
		return
	}

	records, err := s.gateway.List(r.Context(), opts)
	if err != nil {
		metrics.IncDataOperation("list", "error")
		s.writeGatewayError(w, r, err)
		return
	}

	metrics.IncDataOperation("list", "success")
	writeJSON(w, http.StatusOK, map[string]any{"data": records})
}

// handleUpdate replaces the points identified by the path id.
//
//	PUT /data/{id}
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	point, err := decodePoint(r)
	if err == nil {
		err = s.gateway.Update(r.Context(), id, point)
	}
	if err != nil {
		metrics.IncDataOperation("update", "error")
		s.writeGatewayError(w, r, err)
		return
	}

	metrics.IncDataOperation("update", "success")
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Data %s updated successfully", id)})
}

// handleDelete removes the points identified by the path id.
//
//	DELETE /data/{id}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.gateway.Delete(r.Context(), id); err != nil {
		metrics.IncDataOperation("delete", "error")
		s.writeGatewayError(w, r, err)
		return
	}

	metrics.IncDataOperation("delete", "success")
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Data %s deleted successfully", id)})
}
