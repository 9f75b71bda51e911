package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for tsgate.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Secrets  SecretsConfig  `yaml:"secrets"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host     string              `yaml:"host"`
	Port     int                 `yaml:"port"`
	TLS      TLSConfig           `yaml:"tls"`
	Timeouts ServerTimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig          `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// ServerTimeoutConfig contains HTTP timeout settings in seconds.
type ServerTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// InfluxDBConfig contains InfluxDB v2 connection and query settings.
type InfluxDBConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`

	// RequestTimeout is the overall budget for a single outbound call, in seconds.
	RequestTimeout int `yaml:"request_timeout"`

	// Lookback is the default query window for reads (e.g. "168h" for 7 days).
	Lookback Duration `yaml:"lookback"`

	// QueryLimit caps the number of rows returned by a read.
	QueryLimit int `yaml:"query_limit"`

	// IDTag is the tag key that identifies a logical series for
	// update/delete-by-identifier operations.
	IDTag string `yaml:"id_tag"`
}

// SecretsConfig controls credential resolution from AWS at startup.
//
// When enabled, the InfluxDB token (or the whole token/org/bucket bundle)
// is fetched from SSM Parameter Store or Secrets Manager instead of being
// read from YAML or environment.
type SecretsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Region  string `yaml:"region"`

	// TokenParameter is an SSM parameter name holding the InfluxDB token.
	TokenParameter string `yaml:"token_parameter"`

	// SecretID is a Secrets Manager secret holding a JSON bundle
	// {"token":..., "org":..., "bucket":...}.
	SecretID string `yaml:"secret_id"`
}

// IngestConfig contains the optional MQTT telemetry ingest settings.
type IngestConfig struct {
	Enabled   bool                  `yaml:"enabled"`
	Broker    BrokerConfig          `yaml:"broker"`
	Auth      BrokerAuthConfig      `yaml:"auth"`
	QoS       int                   `yaml:"qos"`
	Topic     string                `yaml:"topic"`
	Reconnect IngestReconnectConfig `yaml:"reconnect"`
}

// BrokerConfig contains MQTT broker connection details.
type BrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// BrokerAuthConfig contains MQTT authentication credentials.
type BrokerAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// IngestReconnectConfig contains MQTT reconnection settings in seconds.
type IngestReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// SecurityConfig contains API authentication settings.
type SecurityConfig struct {
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig contains bearer-token authentication settings for /data routes.
type AuthConfig struct {
	Enabled   bool   `yaml:"enabled"`
	JWTSecret string `yaml:"jwt_secret"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Duration wraps time.Duration so YAML values can use Go duration syntax
// ("24h", "90m") instead of raw nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// String returns the value in time.Duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TSGATE_SECTION_KEY
// For example: TSGATE_INFLUXDB_URL, TSGATE_SERVER_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
//
// The query defaults (7-day lookback, 100-row limit, sensor_id identifier
// tag) match the behaviour of the deployed gateway this service replaces.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: ServerTimeoutConfig{
				Read:  30,
				Write: 35,
				Idle:  60,
			},
		},
		InfluxDB: InfluxDBConfig{
			URL:            "http://localhost:8086",
			Org:            "myorg",
			Bucket:         "mybucket",
			RequestTimeout: 30,
			Lookback:       Duration(7 * 24 * time.Hour),
			QueryLimit:     100,
			IDTag:          "sensor_id",
		},
		Ingest: IngestConfig{
			Broker: BrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "tsgate",
			},
			QoS:   1,
			Topic: "telemetry/#",
			Reconnect: IngestReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: TSGATE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("TSGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TSGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("TSGATE_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("TSGATE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("TSGATE_INFLUXDB_ORG"); v != "" {
		cfg.InfluxDB.Org = v
	}
	if v := os.Getenv("TSGATE_INFLUXDB_BUCKET"); v != "" {
		cfg.InfluxDB.Bucket = v
	}

	// Secrets
	if v := os.Getenv("TSGATE_SECRETS_REGION"); v != "" {
		cfg.Secrets.Region = v
	}

	// Ingest
	if v := os.Getenv("TSGATE_MQTT_HOST"); v != "" {
		cfg.Ingest.Broker.Host = v
	}
	if v := os.Getenv("TSGATE_MQTT_USERNAME"); v != "" {
		cfg.Ingest.Auth.Username = v
	}
	if v := os.Getenv("TSGATE_MQTT_PASSWORD"); v != "" {
		cfg.Ingest.Auth.Password = v
	}

	// Security
	if v := os.Getenv("TSGATE_JWT_SECRET"); v != "" {
		cfg.Security.Auth.JWTSecret = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	if c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required")
	}
	if c.InfluxDB.Org == "" {
		errs = append(errs, "influxdb.org is required")
	}
	if c.InfluxDB.Bucket == "" {
		errs = append(errs, "influxdb.bucket is required")
	}
	if c.InfluxDB.RequestTimeout <= 0 {
		errs = append(errs, "influxdb.request_timeout must be positive")
	}
	if c.InfluxDB.Lookback <= 0 {
		errs = append(errs, "influxdb.lookback must be positive")
	}
	if c.InfluxDB.QueryLimit <= 0 {
		errs = append(errs, "influxdb.query_limit must be positive")
	}
	if c.InfluxDB.IDTag == "" {
		errs = append(errs, "influxdb.id_tag is required")
	}

	// The token must come from somewhere: YAML/env directly, or a
	// configured secret indirection resolved at startup.
	if c.InfluxDB.Token == "" && !c.Secrets.Enabled {
		errs = append(errs, "influxdb.token is required (set TSGATE_INFLUXDB_TOKEN or enable secrets)")
	}
	if c.Secrets.Enabled && c.Secrets.TokenParameter == "" && c.Secrets.SecretID == "" {
		errs = append(errs, "secrets.token_parameter or secrets.secret_id is required when secrets are enabled")
	}

	if c.Ingest.Enabled {
		if c.Ingest.Broker.Host == "" {
			errs = append(errs, "ingest.broker.host is required when ingest is enabled")
		}
		if c.Ingest.QoS < 0 || c.Ingest.QoS > 2 {
			errs = append(errs, "ingest.qos must be 0, 1, or 2")
		}
		if c.Ingest.Topic == "" {
			errs = append(errs, "ingest.topic is required when ingest is enabled")
		}
	}

	const minJWTSecretLength = 32
	if c.Security.Auth.Enabled {
		if c.Security.Auth.JWTSecret == "" {
			errs = append(errs, "security.auth.jwt_secret is required when auth is enabled (set TSGATE_JWT_SECRET)")
		} else if len(c.Security.Auth.JWTSecret) < minJWTSecretLength {
			errs = append(errs, "security.auth.jwt_secret must be at least 32 characters")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetRequestTimeout returns the outbound call budget as a Duration.
func (c *InfluxDBConfig) GetRequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// GetLookback returns the default query window as a time.Duration.
func (c *InfluxDBConfig) GetLookback() time.Duration {
	return time.Duration(c.Lookback)
}

// GetReadTimeout returns the server read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the server write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the server idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Idle) * time.Second
}
