package ingest

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/tsgate/internal/gateway"
	"github.com/nerrad567/tsgate/internal/infrastructure/config"
	"github.com/nerrad567/tsgate/internal/infrastructure/logging"
	"github.com/nerrad567/tsgate/internal/observability/metrics"
)

// Connection constants.
const (
	// connectTimeout is the maximum time to wait for the initial connection.
	connectTimeout = 10 * time.Second

	// disconnectQuiesce is the time to wait for pending operations on disconnect.
	disconnectQuiesce = 1000 // milliseconds

	// keepAlive is the keepalive interval for the connection.
	keepAlive = 60 * time.Second

	// messageTimeout bounds the gateway write triggered by one message.
	messageTimeout = 30 * time.Second

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// Creator is the slice of the gateway the bridge needs.
type Creator interface {
	Create(ctx context.Context, point gateway.DataPoint) error
}

// Bridge subscribes to an MQTT topic and writes each message through the
// gateway. Subscriptions are restored automatically on reconnect.
//
// All methods are safe for concurrent use.
type Bridge struct {
	client  pahomqtt.Client
	cfg     config.IngestConfig
	creator Creator
	logger  *logging.Logger

	connected bool
	mu        sync.RWMutex
}

// Connect establishes the broker connection and subscribes to the
// configured topic. The returned bridge keeps itself subscribed across
// reconnects until Close() is called.
func Connect(cfg config.IngestConfig, creator Creator, logger *logging.Logger) (*Bridge, error) {
	b := &Bridge{
		cfg:     cfg,
		creator: creator,
		logger:  logger,
	}

	opts := buildClientOptions(cfg)
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		b.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		b.mu.Lock()
		b.connected = false
		b.mu.Unlock()
		b.logger.Warn("ingest broker connection lost", "error", err)
	})

	b.client = pahomqtt.NewClient(opts)
	token := b.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The OnConnect handler runs asynchronously; mark connected here so
	// IsConnected() is accurate immediately after a successful Connect.
	b.mu.Lock()
	b.connected = true
	b.mu.Unlock()

	return b, nil
}

// handleConnect runs on every (re)connection and restores the subscription.
func (b *Bridge) handleConnect() {
	b.mu.Lock()
	b.connected = true
	b.mu.Unlock()

	token := b.client.Subscribe(b.cfg.Topic, byte(b.cfg.QoS), b.handleMessage)
	if token.Wait() && token.Error() != nil {
		b.logger.Error("ingest subscribe failed",
			"topic", b.cfg.Topic,
			"error", token.Error(),
		)
		return
	}
	b.logger.Info("ingest subscribed", "topic", b.cfg.Topic, "qos", b.cfg.QoS)
}

// handleMessage decodes one telemetry message and writes it through the
// gateway. Failures are logged and dropped.
func (b *Bridge) handleMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	var point gateway.DataPoint
	if err := json.Unmarshal(msg.Payload(), &point); err != nil {
		metrics.IncIngestMessage("malformed")
		b.logger.Warn("dropping malformed ingest message",
			"topic", msg.Topic(),
			"error", err,
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	if err := b.creator.Create(ctx, point); err != nil {
		metrics.IncIngestMessage("error")
		b.logger.Warn("dropping unwritable ingest message",
			"topic", msg.Topic(),
			"measurement", point.Measurement,
			"error", err,
		)
		return
	}

	metrics.IncIngestMessage("success")
}

// IsConnected reports whether the bridge currently holds a broker connection.
func (b *Bridge) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected && b.client != nil && b.client.IsConnected()
}

// HealthCheck verifies the broker connection is alive.
func (b *Bridge) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("ingest health check: %w", ctx.Err())
	default:
	}

	if !b.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Close unsubscribes and disconnects from the broker.
func (b *Bridge) Close() error {
	if b.client == nil {
		return nil
	}

	if b.client.IsConnected() {
		if token := b.client.Unsubscribe(b.cfg.Topic); token.Wait() && token.Error() != nil {
			b.logger.Warn("ingest unsubscribe failed", "topic", b.cfg.Topic, "error", token.Error())
		}
		b.client.Disconnect(disconnectQuiesce)
	}

	b.mu.Lock()
	b.connected = false
	b.mu.Unlock()

	b.logger.Info("ingest bridge closed")
	return nil
}

// buildClientOptions creates paho MQTT options from the ingest config.
func buildClientOptions(cfg config.IngestConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))

	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Start fresh on connect; the OnConnect handler re-subscribes.
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(keepAlive)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	return opts
}
