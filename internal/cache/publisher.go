package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"feargreed-dashboard/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const channelPrefix = "feargreed:"

type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Channel is the pub/sub channel carrying readings for mode.
func Channel(mode domain.Mode) string {
	return channelPrefix + string(mode)
}

// LatestKey holds the last published reading for mode.
func LatestKey(mode domain.Mode) string {
	return channelPrefix + "latest:" + string(mode)
}

// ReadingPublisher fans fresh readings out over Redis pub/sub and keeps the
// latest one under a key that expires after ttl.
type ReadingPublisher struct {
	tracer trace.Tracer
	client RedisClient
	ttl    time.Duration
}

func NewReadingPublisher(tracer trace.Tracer, client RedisClient, ttl time.Duration) *ReadingPublisher {
	return &ReadingPublisher{tracer: tracer, client: client, ttl: ttl}
}

func (p *ReadingPublisher) Publish(ctx context.Context, reading domain.SentimentReading) error {
	ctx, span := p.tracer.Start(ctx, "reading-publisher.publish")
	defer span.End()
	span.SetAttributes(attribute.String("reading.mode", string(reading.Mode)))

	data, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}
	if err := p.client.Set(ctx, LatestKey(reading.Mode), data, p.ttl).Err(); err != nil {
		return fmt.Errorf("store latest reading: %w", err)
	}
	receivers, err := p.client.Publish(ctx, Channel(reading.Mode), data).Result()
	if err != nil {
		return fmt.Errorf("publish reading: %w", err)
	}
	span.SetAttributes(attribute.Int64("reading.receivers", receivers))
	return nil
}
