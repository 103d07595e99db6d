package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied.
var ErrMeterNil = errors.New("migration metrics: meter cannot be nil")

// Attribute keys attached to migration instruments.
const (
	AttrEntityKind = attribute.Key("migration.entity")
	AttrOperation  = attribute.Key("migration.operation")
	AttrErrorCode  = attribute.Key("migration.error_code")
	AttrReason     = attribute.Key("migration.reason")
)

// RequestDurationBuckets are bucket boundaries for GraphQL round trips (seconds).
var RequestDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// MigrationMetrics counts what the upload sequencer does with each entity.
// A nil *MigrationMetrics is valid and records nothing.
type MigrationMetrics struct {
	created         metric.Int64Counter
	failed          metric.Int64Counter
	skipped         metric.Int64Counter
	retries         metric.Int64Counter
	requestDuration metric.Float64Histogram
}

type counterSpec struct {
	dst         *metric.Int64Counter
	name        string
	description string
	unit        string
}

// NewMigrationMetrics registers the migration instruments on meter.
func NewMigrationMetrics(meter metric.Meter) (*MigrationMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &MigrationMetrics{}
	counters := []counterSpec{
		{&m.created, "migrator_entities_created_total", "Entities created in the storefront", "{entities}"},
		{&m.failed, "migrator_entities_failed_total", "Entities whose creation failed terminally", "{entities}"},
		{&m.skipped, "migrator_entities_skipped_total", "Entities skipped because a prerequisite was missing", "{entities}"},
		{&m.retries, "migrator_request_retries_total", "Storefront requests repeated after a session refresh or uniqueness mutation", "{requests}"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.description), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", c.name, err)
		}
		*c.dst = counter
	}

	hist, err := meter.Float64Histogram("migrator_request_duration_seconds",
		metric.WithDescription("Storefront request latency including retries"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(RequestDurationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("register migrator_request_duration_seconds: %w", err)
	}
	m.requestDuration = hist

	return m, nil
}

// RecordCreated counts one created entity.
func (m *MigrationMetrics) RecordCreated(ctx context.Context, entity string) {
	if m == nil {
		return
	}
	m.created.Add(ctx, 1, metric.WithAttributes(AttrEntityKind.String(entity)))
}

// RecordFailed counts one terminal failure.
func (m *MigrationMetrics) RecordFailed(ctx context.Context, entity, code string) {
	if m == nil {
		return
	}
	m.failed.Add(ctx, 1, metric.WithAttributes(AttrEntityKind.String(entity), AttrErrorCode.String(code)))
}

// RecordSkipped counts one skipped entity.
func (m *MigrationMetrics) RecordSkipped(ctx context.Context, entity, reason string) {
	if m == nil {
		return
	}
	m.skipped.Add(ctx, 1, metric.WithAttributes(AttrEntityKind.String(entity), AttrReason.String(reason)))
}

// RecordRetry counts one repeated request.
func (m *MigrationMetrics) RecordRetry(ctx context.Context, operation, reason string) {
	if m == nil {
		return
	}
	m.retries.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(operation), AttrReason.String(reason)))
}

// RecordRequest records the latency of one logical storefront operation.
func (m *MigrationMetrics) RecordRequest(ctx context.Context, operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(AttrOperation.String(operation)))
}
