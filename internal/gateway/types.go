package gateway

import (
	"fmt"

	"github.com/nerrad567/tsgate/internal/influx"
)

// DataPoint is a single time-series sample as submitted by clients.
//
// Timestamps are assigned server-side at write time; clients cannot
// backdate points through the gateway.
type DataPoint struct {
	Measurement string                 `json:"measurement"`
	Tags        map[string]string      `json:"tags"`
	Fields      map[string]interface{} `json:"fields"`
}

// Validate checks the point is writable. All failures wrap ErrValidation.
func (p DataPoint) Validate() error {
	if p.Measurement == "" {
		return fmt.Errorf("%w: measurement is required", ErrValidation)
	}
	if len(p.Fields) == 0 {
		return fmt.Errorf("%w: at least one field is required", ErrValidation)
	}
	for key, value := range p.Fields {
		if key == "" {
			return fmt.Errorf("%w: field key must not be empty", ErrValidation)
		}
		switch value.(type) {
		case float64, int, int64, string, bool:
		default:
			return fmt.Errorf("%w: field %q has unsupported type %T", ErrValidation, key, value)
		}
	}
	for key, value := range p.Tags {
		if key == "" || value == "" {
			return fmt.Errorf("%w: tag keys and values must not be empty", ErrValidation)
		}
	}
	return nil
}

// Record is one flattened query result row: the column-oriented store
// output reshaped into the measurement/field/value/tags form clients see.
type Record map[string]string

// resultColumns are store bookkeeping columns dropped from client records,
// mapped to their client-facing name where one exists.
var resultColumns = map[string]string{
	"result":       "",
	"table":        "",
	"_start":       "",
	"_stop":        "",
	"_time":        "time",
	"_measurement": "measurement",
	"_field":       "field",
	"_value":       "value",
}

// flattenRecord converts a raw annotated-CSV row into a client Record.
// Unrecognised columns are passed through as tags.
func flattenRecord(row influx.Record) Record {
	out := make(Record, len(row))
	for column, value := range row {
		mapped, known := resultColumns[column]
		if known {
			if mapped != "" {
				out[mapped] = value
			}
			continue
		}
		out[column] = value
	}
	return out
}
