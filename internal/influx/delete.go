package influx

import (
	"context"
	"time"
)

// DeletePredicate issues a predicate delete against the configured bucket.
//
// The predicate selects points by tag equality (e.g.
// `_measurement="sensor_data" AND sensor_id="s1"`); the time range bounds
// which points are considered. Deleting zero matching points is a success.
//
// Parameters:
//   - ctx: Context for cancellation; the configured request timeout is applied
//   - start: Inclusive start of the delete range
//   - stop: Exclusive end of the delete range
//   - predicate: Delete predicate expression over measurement and tags
//
// Returns:
//   - error: nil on success, *UpstreamError on rejection, ErrUnreachable
//     on timeout or transport failure
func (c *Client) DeletePredicate(ctx context.Context, start, stop time.Time, predicate string) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	err := c.deleteAPI.DeleteWithName(opCtx, c.cfg.Org, c.cfg.Bucket, start, stop, predicate)
	return classifyError(err)
}
