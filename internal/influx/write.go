package influx

import (
	"context"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePoint writes a single data point and waits for the result.
//
// The point is timestamped at call time; line protocol encoding is
// handled by the client library.
//
// Parameters:
//   - ctx: Context for cancellation; the configured request timeout is applied
//   - measurement: The measurement name (series/table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Returns:
//   - error: nil on success, *UpstreamError on rejection, ErrUnreachable
//     on timeout or transport failure
func (c *Client) WritePoint(ctx context.Context, measurement string, tags map[string]string, fields map[string]interface{}) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	point := write.NewPoint(measurement, tags, fields, time.Now())
	return classifyError(c.writeAPI.WritePoint(opCtx, point))
}
