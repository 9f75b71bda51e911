// tsgate - Time-Series CRUD Gateway
//
// This is the main entry point for the gateway. It exposes a small REST
// surface over an InfluxDB v2 bucket: writes, bounded Flux reads,
// append-only updates, and predicate deletes, plus an optional MQTT
// telemetry ingest path.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/nerrad567/tsgate/internal/api"
	"github.com/nerrad567/tsgate/internal/gateway"
	"github.com/nerrad567/tsgate/internal/infrastructure/config"
	"github.com/nerrad567/tsgate/internal/infrastructure/logging"
	"github.com/nerrad567/tsgate/internal/infrastructure/secrets"
	"github.com/nerrad567/tsgate/internal/influx"
	"github.com/nerrad567/tsgate/internal/ingest"
	"github.com/nerrad567/tsgate/internal/observability/metrics"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// cli defines the command-line flags.
type cli struct {
	Config  string           `help:"Path to configuration file." default:"configs/config.yaml" env:"TSGATE_CONFIG"`
	Version kong.VersionFlag `help:"Print version and exit."`
}

// startupCheckTimeout bounds the post-startup health check fan-out.
const startupCheckTimeout = 10 * time.Second

func main() {
	var flags cli
	kong.Parse(&flags,
		kong.Name("tsgate"),
		kong.Description("Time-series CRUD gateway over InfluxDB v2."),
		kong.Vars{"version": fmt.Sprintf("tsgate %s (%s, built %s)", version, commit, date)},
	)

	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, flags.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting tsgate",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	metrics.Init()

	// Resolve store credentials from AWS when configured. Tokens are only
	// ever logged truncated.
	if cfg.Secrets.Enabled {
		resolver, resolveErr := secrets.NewResolver(ctx, cfg.Secrets)
		if resolveErr != nil {
			return fmt.Errorf("creating secrets resolver: %w", resolveErr)
		}
		creds, resolveErr := resolver.Resolve(ctx)
		if resolveErr != nil {
			return fmt.Errorf("resolving store credentials: %w", resolveErr)
		}
		creds.Apply(&cfg.InfluxDB)
		log.Info("store credentials resolved",
			"region", cfg.Secrets.Region,
			"token", logging.TokenPreview(cfg.InfluxDB.Token),
		)
	}

	// Connect to the time-series store
	store, err := influx.Connect(ctx, cfg.InfluxDB)
	if err != nil {
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	defer func() {
		log.Info("closing InfluxDB connection")
		if closeErr := store.Close(); closeErr != nil {
			log.Error("error closing InfluxDB", "error", closeErr)
		}
	}()
	log.Info("InfluxDB connected",
		"url", cfg.InfluxDB.URL,
		"org", cfg.InfluxDB.Org,
		"bucket", cfg.InfluxDB.Bucket,
		"token", logging.TokenPreview(cfg.InfluxDB.Token),
	)

	svc := gateway.NewService(store, cfg.InfluxDB, log)

	// Start MQTT ingest bridge (optional)
	var bridge *ingest.Bridge
	if cfg.Ingest.Enabled {
		bridge, err = ingest.Connect(cfg.Ingest, svc, log)
		if err != nil {
			return fmt.Errorf("connecting ingest bridge: %w", err)
		}
		defer func() {
			log.Info("closing ingest bridge")
			if closeErr := bridge.Close(); closeErr != nil {
				log.Error("error closing ingest bridge", "error", closeErr)
			}
		}()
		log.Info("ingest bridge connected",
			"broker", fmt.Sprintf("%s:%d", cfg.Ingest.Broker.Host, cfg.Ingest.Broker.Port),
			"topic", cfg.Ingest.Topic,
		)
	} else {
		log.Info("ingest bridge disabled")
	}

	// Start HTTP API server
	server, err := api.New(api.Deps{
		Config:   cfg.Server,
		Security: cfg.Security,
		Logger:   log,
		Gateway:  svc,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))

	// Verify all connections are healthy
	if err := healthCheck(ctx, store, server, bridge); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Ingest bridge (if enabled)
	// 3. InfluxDB

	log.Info("tsgate stopped")
	return nil
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, store *influx.Client, server *api.Server, bridge *ingest.Bridge) error {
	checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()

	if err := store.HealthCheck(checkCtx); err != nil {
		return fmt.Errorf("influxdb: %w", err)
	}
	if err := server.HealthCheck(checkCtx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if bridge != nil {
		if err := bridge.HealthCheck(checkCtx); err != nil {
			return fmt.Errorf("ingest: %w", err)
		}
	}
	return nil
}
