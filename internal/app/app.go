// Package app assembles the sentiment and news sources shared by the
// server, SSH and local terminal binaries.
package app

import (
	"feargreed-dashboard/internal/config"
	"feargreed-dashboard/internal/dashboard"
	"feargreed-dashboard/internal/domain"
	"feargreed-dashboard/internal/logging"
	"feargreed-dashboard/internal/news"
	"feargreed-dashboard/internal/provider"
	"feargreed-dashboard/internal/sentiment"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type Stack struct {
	Index  *sentiment.Source
	News   *news.Source
	Random *sentiment.MockGenerator
	Clock  clockwork.Clock
	Mode   domain.Mode

	tracer trace.Tracer
	logger zerolog.Logger
}

// NewLogger builds the process logger from cfg and installs it globally.
func NewLogger(cfg *config.Config) zerolog.Logger {
	logger := logging.NewLogger(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logging.SetGlobal(logger)
	return logger
}

func NewStack(cfg *config.Config, tracer trace.Tracer, logger zerolog.Logger, clock clockwork.Clock) *Stack {
	timeout := cfg.HTTPTimeout()
	mode, err := domain.ParseMode(cfg.DefaultMode)
	if err != nil {
		mode = domain.ModeCrypto
	}

	crypto := provider.NewFearGreedProvider(tracer, cfg.CryptoAPIURL, cfg.CryptoAPILimit, timeout)
	mock := sentiment.NewMockGenerator(clock, nil)
	index := sentiment.NewSource(tracer, logger, clock, crypto, stockFetcher(cfg, tracer), mock, sentiment.Options{
		RefreshInterval: cfg.APIRefreshInterval,
		FetchTimeout:    timeout,
		DefaultMode:     mode,
	})
	headlines := news.NewSource(tracer, logger, clock, newsSearcher(cfg, tracer), news.Options{
		RefreshInterval: cfg.NewsRefreshInterval,
		FetchTimeout:    timeout,
	})

	return &Stack{
		Index:  index,
		News:   headlines,
		Random: mock,
		Clock:  clock,
		Mode:   mode,
		tracer: tracer,
		logger: logger,
	}
}

// NewController opens a dashboard session on the shared sources.
func (s *Stack) NewController(logger zerolog.Logger) *dashboard.Controller {
	return dashboard.NewController(s.tracer, logger, s.Clock, s.Index, s.News, s.Random, s.Mode)
}

// stockFetcher returns nil without a RapidAPI key so stock mode serves mock
// data.
func stockFetcher(cfg *config.Config, tracer trace.Tracer) sentiment.IndexFetcher {
	if cfg.RapidAPIKey == "" {
		return nil
	}
	return provider.NewStockIndexProvider(tracer, cfg.StockAPIURL, cfg.RapidAPIKey, cfg.HTTPTimeout())
}

// newsSearcher returns nil when the selected provider has nothing to query.
func newsSearcher(cfg *config.Config, tracer trace.Tracer) news.Searcher {
	switch cfg.NewsProvider {
	case "rss":
		if len(cfg.NewsRSSFeeds) == 0 {
			return nil
		}
		return provider.NewRSSNewsProvider(tracer, cfg.NewsRSSFeeds, cfg.HTTPTimeout())
	default:
		if cfg.NewsAPIKey == "" {
			return nil
		}
		return provider.NewNewsAPIProvider(tracer, cfg.NewsAPIURL, cfg.NewsAPIKey, cfg.HTTPTimeout())
	}
}
