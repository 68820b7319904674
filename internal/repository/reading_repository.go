package repository

import (
	"context"
	"fmt"
	"time"

	"feargreed-dashboard/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxHistoryLimit = 365

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type ReadingRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewReadingRepository(pool PgxPool, tracer trace.Tracer) *ReadingRepository {
	return &ReadingRepository{pool: pool, tracer: tracer}
}

// RecordReading stores one observation. Re-recording the same observation
// is a no-op.
func (r *ReadingRepository) RecordReading(ctx context.Context, reading domain.SentimentReading) error {
	ctx, span := r.tracer.Start(ctx, "reading-repo.record-reading")
	defer span.End()
	span.SetAttributes(
		attribute.String("reading.mode", string(reading.Mode)),
		attribute.Int("reading.value", reading.Value),
	)

	if !reading.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidArgument, reading.Mode)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO sentiment_readings (mode, value, classification, observed_at, is_mock)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (mode, observed_at, is_mock) DO NOTHING`,
		string(reading.Mode),
		domain.ClampValue(reading.Value),
		string(reading.Classification),
		time.UnixMilli(reading.Timestamp).UTC(),
		reading.IsMock,
	)
	return err
}

// RecentReadings returns up to limit readings for mode, newest first.
func (r *ReadingRepository) RecentReadings(ctx context.Context, mode domain.Mode, limit int) ([]domain.SentimentReading, error) {
	ctx, span := r.tracer.Start(ctx, "reading-repo.recent-readings")
	defer span.End()

	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidArgument, mode)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidArgument)
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	span.SetAttributes(attribute.String("reading.mode", string(mode)), attribute.Int("reading.limit", limit))

	rows, err := r.pool.Query(ctx,
		`SELECT value, classification, observed_at, is_mock
		 FROM sentiment_readings
		 WHERE mode = $1
		 ORDER BY observed_at DESC
		 LIMIT $2`,
		string(mode), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []domain.SentimentReading
	for rows.Next() {
		var (
			value          int16
			classification string
			observedAt     time.Time
			isMock         bool
		)
		if err := rows.Scan(&value, &classification, &observedAt, &isMock); err != nil {
			return nil, err
		}
		readings = append(readings, domain.SentimentReading{
			Mode:           mode,
			Value:          int(value),
			Classification: domain.Classification(classification),
			Timestamp:      observedAt.UnixMilli(),
			IsMock:         isMock,
		})
	}
	return readings, rows.Err()
}
