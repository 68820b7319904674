package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"feargreed-dashboard/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultFearGreedURL   = "https://api.alternative.me/fng/"
	DefaultFearGreedLimit = 30
)

// FearGreedProvider reads the crypto index from alternative.me.
type FearGreedProvider struct {
	client  *http.Client
	baseURL string
	limit   int
	tracer  trace.Tracer
}

func NewFearGreedProvider(tracer trace.Tracer, baseURL string, limit int, timeout time.Duration) *FearGreedProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultFearGreedURL
	}
	if limit <= 0 {
		limit = DefaultFearGreedLimit
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &FearGreedProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		limit:   limit,
		tracer:  tracer,
	}
}

// FetchIndex returns the latest value with up to limit days of history.
func (p *FearGreedProvider) FetchIndex(ctx context.Context) (*domain.SentimentReading, error) {
	ctx, span := p.tracer.Start(ctx, "feargreed.fetch-index")
	defer span.End()
	span.SetAttributes(attribute.Int("feargreed.limit", p.limit))

	u, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse fear & greed url: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(p.limit))
	u.RawQuery = q.Encode()

	var payload struct {
		Data []struct {
			Value          string `json:"value"`
			Classification string `json:"value_classification"`
			Timestamp      string `json:"timestamp"`
		} `json:"data"`
	}
	if err := getJSON(ctx, p.client, u.String(), nil, &payload); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("fear & greed: %w", err)
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("fear & greed response has no rows")
	}

	historical := make([]domain.HistoricalPoint, 0, len(payload.Data))
	inRange := true
	for i, row := range payload.Data {
		value, err := strconv.Atoi(strings.TrimSpace(row.Value))
		if err != nil {
			return nil, fmt.Errorf("parse fear & greed value: %w", err)
		}
		if i == 0 {
			inRange = value == domain.ClampValue(value)
		}
		ts, err := parseEpochMillis(row.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("parse fear & greed timestamp: %w", err)
		}
		historical = append(historical, domain.HistoricalPoint{
			Value:     domain.ClampValue(value),
			Timestamp: ts,
		})
	}

	current := historical[0]
	classification := domain.Classification(strings.TrimSpace(payload.Data[0].Classification))
	if classification == "" || !inRange {
		classification = domain.Classify(current.Value)
	}

	return &domain.SentimentReading{
		Mode:           domain.ModeCrypto,
		Value:          current.Value,
		Classification: classification,
		Timestamp:      current.Timestamp,
		Historical:     historical,
	}, nil
}

// parseEpochMillis accepts unix seconds or milliseconds.
func parseEpochMillis(v string) (int64, error) {
	ts, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, err
	}
	if ts > 1_000_000_000_000 {
		return ts, nil
	}
	return ts * 1000, nil
}
