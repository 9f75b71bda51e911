package influx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	influxhttp "github.com/influxdata/influxdb-client-go/v2/api/http"

	"github.com/nerrad567/tsgate/internal/infrastructure/config"
)

// Default timeouts for InfluxDB connection management.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultPingTimeout    = 5 * time.Second
)

// Client wraps the InfluxDB v2 client with tsgate-specific functionality.
//
// Unlike a telemetry recorder, a gateway needs per-request error
// visibility, so all operations are synchronous: writes use the blocking
// write API and every call carries the configured request timeout.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines. The client holds no per-request state.
type Client struct {
	client    influxdb2.Client
	writeAPI  api.WriteAPIBlocking
	queryAPI  api.QueryAPI
	deleteAPI api.DeleteAPI
	cfg       config.InfluxDBConfig

	connected bool
	mu        sync.RWMutex
}

// Connect establishes a connection to the InfluxDB server.
//
// It performs the following setup:
//  1. Creates the client with token authentication
//  2. Verifies connectivity with a ping
//  3. Binds the blocking write, query, and delete APIs to the
//     configured organisation and bucket
//
// Parameters:
//   - ctx: Context for the connectivity check
//   - cfg: InfluxDB configuration with resolved credentials
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: If the connection or initial ping fails
func Connect(ctx context.Context, cfg config.InfluxDBConfig) (*Client, error) {
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions(),
	)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	return &Client{
		client:    client,
		writeAPI:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		queryAPI:  client.QueryAPI(cfg.Org),
		deleteAPI: client.DeleteAPI(),
		cfg:       cfg,
		connected: true,
	}, nil
}

// Close shuts down the InfluxDB connection.
//
// Returns:
//   - error: nil (the underlying client Close doesn't return errors)
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.client.Close()
	return nil
}

// HealthCheck verifies the InfluxDB connection is alive and functioning.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	checkCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	healthy, err := c.client.Ping(checkCtx)
	if err != nil {
		return fmt.Errorf("influx health check failed: %w", err)
	}
	if !healthy {
		return fmt.Errorf("influx health check failed: server not healthy")
	}

	return nil
}

// IsConnected returns the current connection state.
//
// Note: This reflects the last known state. For reliability,
// use HealthCheck which performs an active ping.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// opContext derives a context carrying the configured request budget.
func (c *Client) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.cfg.GetRequestTimeout())
}

// classifyError maps a client-library error onto the package taxonomy.
//
// A completed call with a non-2xx status becomes *UpstreamError; a
// timeout, cancellation, or transport failure becomes ErrUnreachable.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var upstream *influxhttp.Error
	if errors.As(err, &upstream) && upstream.StatusCode > 0 {
		return &UpstreamError{
			Status:  upstream.StatusCode,
			Message: upstream.Message,
		}
	}

	return fmt.Errorf("%w: %w", ErrUnreachable, err)
}
