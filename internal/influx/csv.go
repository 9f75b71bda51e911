package influx

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Record is one flattened row of a Flux query result: column name to
// raw string value, annotation rows stripped.
type Record map[string]string

// ParseAnnotatedCSV parses InfluxDB's annotated CSV query response into
// flat records.
//
// The annotated format interleaves annotation rows (first cell starting
// with '#'), a header row per result table, and data rows; tables are
// separated by empty lines. This parser:
//   - skips annotation rows
//   - treats the first non-annotation row of each table as the header
//   - zips every following row into a Record
//
// An empty payload (or one containing only annotations) parses to an
// empty slice, not an error. A data row whose width disagrees with its
// header is an ErrBadResponse.
func ParseAnnotatedCSV(raw string) ([]Record, error) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1

	records := make([]Record, 0)
	var header []string

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
		}

		// Empty line: table boundary, next row is a new header.
		if isEmptyRow(row) {
			header = nil
			continue
		}

		// Annotation rows (#group, #datatype, #default) carry schema
		// metadata the gateway does not need. An annotation appearing
		// after data rows starts a new result table, so the header
		// resets even when csv.Reader swallowed the blank separator.
		if strings.HasPrefix(row[0], "#") {
			header = nil
			continue
		}

		if header == nil {
			header = row
			continue
		}

		if len(row) != len(header) {
			return nil, fmt.Errorf("%w: row has %d columns, header has %d", ErrBadResponse, len(row), len(header))
		}

		record := make(Record, len(header))
		for i, key := range header {
			if key == "" {
				// The annotation column header is empty; its values
				// are row indices with no meaning downstream.
				continue
			}
			record[key] = row[i]
		}
		records = append(records, record)
	}

	return records, nil
}

// isEmptyRow reports whether a CSV row is a blank table separator.
func isEmptyRow(row []string) bool {
	if len(row) == 0 {
		return true
	}
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
