package influx

import (
	"context"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

// QueryRaw executes a Flux query and returns the raw annotated-CSV response.
//
// Parsing is deliberately left to ParseAnnotatedCSV so malformed-response
// handling can be tested in isolation from the transport.
//
// Parameters:
//   - ctx: Context for cancellation; the configured request timeout is applied
//   - flux: Flux query string
//
// Returns:
//   - string: Raw annotated-CSV payload
//   - error: *UpstreamError on rejection, ErrUnreachable on timeout or
//     transport failure
func (c *Client) QueryRaw(ctx context.Context, flux string) (string, error) {
	if !c.IsConnected() {
		return "", ErrNotConnected
	}

	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	result, err := c.queryAPI.QueryRaw(opCtx, flux, influxdb2.DefaultDialect())
	if err != nil {
		return "", classifyError(err)
	}

	return result, nil
}
