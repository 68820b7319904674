package handler

import (
	"context"
	"errors"
	"net/http"

	"feargreed-dashboard/internal/domain"
	"feargreed-dashboard/internal/sentiment"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

type IndexService interface {
	Mode() domain.Mode
	SetMode(mode domain.Mode) error
	GetCurrentIndex(ctx context.Context, forceRefresh bool) (domain.SentimentReading, error)
	GetCachedData(mode domain.Mode) (domain.SentimentReading, bool)
	ClearCache()
	Subscribe(fn sentiment.Listener) func()
}

type NewsService interface {
	FetchNews(ctx context.Context, sentimentValue int) []domain.NewsArticle
	ClearCache()
}

type HistoryReader interface {
	RecentReadings(ctx context.Context, mode domain.Mode, limit int) ([]domain.SentimentReading, error)
}

type Handler struct {
	tracer  trace.Tracer
	logger  zerolog.Logger
	index   IndexService
	news    NewsService
	history HistoryReader
	limiter *rate.Limiter
}

func New(tracer trace.Tracer, logger zerolog.Logger, index IndexService, news NewsService) *Handler {
	return &Handler{
		tracer: tracer,
		logger: logger.With().Str("component", "http").Logger(),
		index:  index,
		news:   news,
	}
}

// SetHistory enables the history endpoint.
func (h *Handler) SetHistory(history HistoryReader) {
	h.history = history
}

// SetRateLimit throttles every /api route through limiter.
func (h *Handler) SetRateLimit(limiter *rate.Limiter) {
	h.limiter = limiter
}

// RegisterRoutes mounts the API. Mutating routes require apiKey when it is set.
func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	if h.limiter != nil {
		api.Use(RateLimit(h.limiter))
	}
	api.GET("/index", h.GetIndex)
	api.GET("/mode", h.GetMode)
	api.GET("/cache/:mode", h.GetCached)
	api.GET("/news", h.GetNews)
	api.GET("/history/:mode", h.GetHistory)
	api.GET("/stream", h.Stream)

	protected := api.Group("", APIKeyAuth(apiKey))
	protected.PUT("/mode", h.SetMode)
	protected.DELETE("/cache", h.ClearCache)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNetworkFailure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, span trace.Span, err error) {
	span.RecordError(err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
