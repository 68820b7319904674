package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feargreed-dashboard/internal/app"
	"feargreed-dashboard/internal/bot"
	"feargreed-dashboard/internal/cache"
	"feargreed-dashboard/internal/config"
	"feargreed-dashboard/internal/db"
	"feargreed-dashboard/internal/domain"
	"feargreed-dashboard/internal/handler"
	"feargreed-dashboard/internal/job"
	"feargreed-dashboard/internal/repository"
	"feargreed-dashboard/internal/service"
	"feargreed-dashboard/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	_ "feargreed-dashboard/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newClockFunc           = clockwork.NewRealClock
	startPollerFunc        = func(p *job.SentimentPoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Fear & Greed Dashboard API
// @version         1.0
// @description     Crypto and stock market Fear & Greed readings with matching market news.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()
	logger := app.NewLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Postgres and Redis are optional
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)
	defer db.Close()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	clock := newClockFunc()
	stack := app.NewStack(cfg, tracer, logger, clock)

	// Persist and fan out every fresh reading
	var (
		store     service.ReadingStore
		publisher service.ReadingPublisher
		history   *repository.ReadingRepository
	)
	if db.Pool != nil {
		history = repository.NewReadingRepository(db.Pool, tracer)
		store = history
	}
	if cache.Client != nil {
		publisher = cache.NewReadingPublisher(tracer, cache.Client, 2*cfg.APIRefreshInterval)
	}
	recorder := service.NewReadingRecorder(tracer, logger, store, publisher, 0)
	if recorder.Enabled() {
		unsubscribe := stack.Index.Subscribe(recorder.Listen)
		defer unsubscribe()
	}

	// Server-side dashboard session drives extreme alerts
	controller := stack.NewController(logger)
	b, err := startTelegramBotFunc(logger, cfg.TelegramBotToken, stack.Index, stack.News)
	if err != nil {
		logger.Error().Err(err).Msg("telegram bot disabled")
	}
	if b != nil && cfg.TelegramAlertChatID != 0 {
		alerter := bot.NewAlerter(b, cfg.TelegramAlertChatID, logger)
		controller.OnExtreme(func(value int, classification domain.Classification) {
			mode := controller.State().Mode
			go alerter.Alert(mode, value, classification)
		})
	}
	if b != nil {
		defer b.Stop()
	}

	poller := job.NewSentimentPoller(tracer, logger, clock, controller, stack.Index, cfg.APIRefreshInterval)
	startPollerFunc(poller, ctx)

	h := handler.New(tracer, logger, stack.Index, stack.News)
	if history != nil {
		h.SetHistory(history)
	}
	if cfg.APIRateLimit > 0 {
		h.SetRateLimit(rate.NewLimiter(rate.Limit(cfg.APIRateLimit), cfg.APIRateBurst))
	}

	r := newRouterFunc()
	r.Use(otelgin.Middleware("feargreed-dashboard"))
	h.RegisterRoutes(r, cfg.APIAuthKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logger.Info().Msg("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	recorder.Wait()

	logger.Info().Msg("Server exiting")
}
