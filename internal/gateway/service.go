package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/tsgate/internal/infrastructure/config"
	"github.com/nerrad567/tsgate/internal/infrastructure/logging"
	"github.com/nerrad567/tsgate/internal/influx"
)

// TimeSeries is the store surface the gateway depends on. *influx.Client
// satisfies it; tests substitute a recording fake.
type TimeSeries interface {
	WritePoint(ctx context.Context, measurement string, tags map[string]string, fields map[string]interface{}) error
	QueryRaw(ctx context.Context, flux string) (string, error)
	DeletePredicate(ctx context.Context, start, stop time.Time, predicate string) error
}

// Service implements the gateway CRUD operations over a TimeSeries store.
// It is stateless; all methods are safe for concurrent use.
type Service struct {
	store  TimeSeries
	cfg    config.InfluxDBConfig
	logger *logging.Logger
}

// NewService creates a gateway service.
func NewService(store TimeSeries, cfg config.InfluxDBConfig, logger *logging.Logger) *Service {
	return &Service{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// Create validates and writes a single point. An invalid point is
// rejected before any outbound call is made.
func (s *Service) Create(ctx context.Context, point DataPoint) error {
	if err := point.Validate(); err != nil {
		return err
	}
	if err := s.store.WritePoint(ctx, point.Measurement, point.Tags, point.Fields); err != nil {
		return fmt.Errorf("writing point: %w", err)
	}
	return nil
}

// List queries points matching opts and returns them as flattened records.
// An empty result is an empty slice, never nil.
func (s *Service) List(ctx context.Context, opts QueryOptions) ([]Record, error) {
	query := buildFluxQuery(s.cfg, opts)

	raw, err := s.store.QueryRaw(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	rows, err := influx.ParseAnnotatedCSV(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing query response: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, flattenRecord(row))
	}
	return records, nil
}

// Update replaces the points identified by id with a single new point.
//
// The store is append-only, so update is write-then-delete: the identifier
// tag is forced onto the incoming point, the point is written, and prior
// points carrying the same identifier are deleted up to a cutoff captured
// before the write (the fresh point can never match its own cleanup).
//
// The write is the authoritative step. If the cleanup delete fails the
// update still succeeds; stale points remain and the failure is logged.
func (s *Service) Update(ctx context.Context, id string, point DataPoint) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrValidation)
	}

	tags := make(map[string]string, len(point.Tags)+1)
	for key, value := range point.Tags {
		tags[key] = value
	}
	tags[s.cfg.IDTag] = id
	point.Tags = tags

	if err := point.Validate(); err != nil {
		return err
	}

	cutoff := time.Now().UTC()
	if err := s.store.WritePoint(ctx, point.Measurement, point.Tags, point.Fields); err != nil {
		return fmt.Errorf("writing replacement point: %w", err)
	}

	predicate := buildIDPredicate(s.cfg.IDTag, id)
	if err := s.store.DeletePredicate(ctx, time.Unix(0, 0).UTC(), cutoff, predicate); err != nil {
		s.logger.Warn("stale point cleanup failed after update",
			"id", id,
			"predicate", predicate,
			"error", err,
		)
	}
	return nil
}

// Delete removes every point carrying the given identifier tag, from the
// epoch to now. Deleting an unknown id is a no-op and succeeds.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrValidation)
	}

	predicate := buildIDPredicate(s.cfg.IDTag, id)
	if err := s.store.DeletePredicate(ctx, time.Unix(0, 0).UTC(), time.Now().UTC(), predicate); err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}
	return nil
}
