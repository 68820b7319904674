package provider

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"feargreed-dashboard/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const DefaultStockIndexURL = "https://fear-and-greed-index.p.rapidapi.com/v1/fgi"

// StockIndexProvider reads the CNN stock market index through RapidAPI.
type StockIndexProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	now     func() time.Time
}

func NewStockIndexProvider(tracer trace.Tracer, baseURL, apiKey string, timeout time.Duration) *StockIndexProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultStockIndexURL
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &StockIndexProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		tracer:  tracer,
		now:     time.Now,
	}
}

type fgiPoint struct {
	Value     float64 `json:"value"`
	ValueText string  `json:"valueText"`
}

// FetchIndex returns the current stock reading. The upstream only exposes
// anchor points, so history holds now, previous close, one week, one month
// and one year back, most recent first.
func (p *StockIndexProvider) FetchIndex(ctx context.Context) (*domain.SentimentReading, error) {
	ctx, span := p.tracer.Start(ctx, "stock-index.fetch-index")
	defer span.End()

	if p.apiKey == "" {
		return nil, fmt.Errorf("stock index: api key is required")
	}

	headers := map[string]string{
		"X-RapidAPI-Key":  p.apiKey,
		"X-RapidAPI-Host": rapidAPIHost(p.baseURL),
	}

	var payload struct {
		LastUpdated struct {
			EpochUnixSeconds int64 `json:"epochUnixSeconds"`
		} `json:"lastUpdated"`
		FGI struct {
			Now           *fgiPoint `json:"now"`
			PreviousClose *fgiPoint `json:"previousClose"`
			OneWeekAgo    *fgiPoint `json:"oneWeekAgo"`
			OneMonthAgo   *fgiPoint `json:"oneMonthAgo"`
			OneYearAgo    *fgiPoint `json:"oneYearAgo"`
		} `json:"fgi"`
	}
	if err := getJSON(ctx, p.client, p.baseURL, headers, &payload); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("stock index: %w", err)
	}
	if payload.FGI.Now == nil {
		return nil, fmt.Errorf("stock index response has no current value")
	}

	asOf := p.now().UTC()
	if payload.LastUpdated.EpochUnixSeconds > 0 {
		asOf = time.Unix(payload.LastUpdated.EpochUnixSeconds, 0).UTC()
	}

	anchors := []struct {
		point *fgiPoint
		days  int
	}{
		{payload.FGI.Now, 0},
		{payload.FGI.PreviousClose, 1},
		{payload.FGI.OneWeekAgo, 7},
		{payload.FGI.OneMonthAgo, 30},
		{payload.FGI.OneYearAgo, 365},
	}
	historical := make([]domain.HistoricalPoint, 0, len(anchors))
	for _, a := range anchors {
		if a.point == nil {
			continue
		}
		historical = append(historical, domain.HistoricalPoint{
			Value:     roundValue(a.point.Value),
			Timestamp: asOf.AddDate(0, 0, -a.days).UnixMilli(),
		})
	}

	value := roundValue(payload.FGI.Now.Value)
	classification := normalizeClassification(payload.FGI.Now.ValueText)
	if classification == "" || float64(value) != math.Round(payload.FGI.Now.Value) {
		classification = domain.Classify(value)
	}

	return &domain.SentimentReading{
		Mode:           domain.ModeStock,
		Value:          value,
		Classification: classification,
		Timestamp:      asOf.UnixMilli(),
		Historical:     historical,
	}, nil
}

func rapidAPIHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "fear-and-greed-index.p.rapidapi.com"
	}
	return u.Host
}

func roundValue(v float64) int {
	return domain.ClampValue(int(math.Round(v)))
}

// normalizeClassification title-cases labels such as "extreme fear".
func normalizeClassification(s string) domain.Classification {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return domain.Classification(strings.Join(words, " "))
}
