package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	placeholderRapidAPIKey = "your_rapidapi_key_here"
	placeholderNewsAPIKey  = "your_newsapi_key_here"
)

type Config struct {
	APIRefreshInterval  time.Duration
	NewsRefreshInterval time.Duration
	HTTPTimeoutSecs     int
	DefaultMode         string

	CryptoAPIURL   string
	CryptoAPILimit int
	StockAPIURL    string
	RapidAPIKey    string

	NewsProvider string
	NewsAPIURL   string
	NewsAPIKey   string
	NewsRSSFeeds []string

	HTTPPort     int
	APIAuthKey   string
	APIRateLimit float64
	APIRateBurst int

	DatabaseURL string
	RedisURL    string

	TelegramBotToken    string
	TelegramAlertChatID int64

	SSHPort                   int
	SSHHostKeyPath            string
	SSHAuthorizedFingerprints []string

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		APIAuthKey:       strings.TrimSpace(os.Getenv("API_AUTH_KEY")),
		RapidAPIKey:      credential("RAPID_API_KEY", placeholderRapidAPIKey),
		NewsAPIKey:       credential("NEWS_API_KEY", placeholderNewsAPIKey),
	}

	cfg.APIRefreshInterval = millis("API_REFRESH_INTERVAL", 5*time.Minute)
	cfg.NewsRefreshInterval = millis("NEWS_REFRESH_INTERVAL", 15*time.Minute)
	cfg.HTTPTimeoutSecs = positiveInt("HTTP_TIMEOUT_SECS", 10)

	cfg.DefaultMode = strings.ToLower(strings.TrimSpace(os.Getenv("DEFAULT_MODE")))
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = "crypto"
	}
	if cfg.DefaultMode != "crypto" && cfg.DefaultMode != "stock" {
		log.Warn().Str("value", cfg.DefaultMode).Msg("unsupported DEFAULT_MODE, defaulting to crypto")
		cfg.DefaultMode = "crypto"
	}

	cfg.CryptoAPIURL = stringOr("CRYPTO_API_URL", "https://api.alternative.me/fng/")
	cfg.CryptoAPILimit = positiveInt("CRYPTO_API_LIMIT", 30)
	cfg.StockAPIURL = stringOr("STOCK_API_URL", "https://fear-and-greed-index.p.rapidapi.com/v1/fgi")
	if cfg.RapidAPIKey == "" {
		log.Warn().Msg("RAPID_API_KEY not set, stock mode will use mock data")
	}

	cfg.NewsProvider = strings.ToLower(stringOr("NEWS_PROVIDER", "newsapi"))
	if cfg.NewsProvider != "newsapi" && cfg.NewsProvider != "rss" {
		log.Warn().Str("value", cfg.NewsProvider).Msg("unsupported NEWS_PROVIDER, defaulting to newsapi")
		cfg.NewsProvider = "newsapi"
	}
	cfg.NewsAPIURL = stringOr("NEWS_API_URL", "https://newsapi.org/v2/everything")
	cfg.NewsRSSFeeds = list("NEWS_RSS_FEEDS")
	if cfg.NewsProvider == "newsapi" && cfg.NewsAPIKey == "" {
		log.Warn().Msg("NEWS_API_KEY not set, news will use mock articles")
	}
	if cfg.NewsProvider == "rss" && len(cfg.NewsRSSFeeds) == 0 {
		log.Warn().Msg("NEWS_RSS_FEEDS empty, news will use mock articles")
	}

	cfg.HTTPPort = positiveInt("HTTP_PORT", 8080)
	cfg.APIRateLimit = nonNegativeFloat("API_RATE_LIMIT", 20)
	cfg.APIRateBurst = positiveInt("API_RATE_BURST", 40)

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_ALERT_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramAlertChatID = n
		}
	}

	cfg.SSHPort = positiveInt("SSH_PORT", 2222)
	cfg.SSHHostKeyPath = stringOr("SSH_HOST_KEY_PATH", ".ssh/id_ed25519")
	cfg.SSHAuthorizedFingerprints = list("SSH_AUTHORIZED_FINGERPRINTS")

	cfg.LogLevel = stringOr("LOG_LEVEL", "info")
	cfg.LogFormat = stringOr("LOG_FORMAT", "json")

	return cfg
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSecs) * time.Second
}

// credential treats the sample value shipped in .env.example as unset.
func credential(name, placeholder string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == placeholder {
		return ""
	}
	return v
}

func stringOr(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func positiveInt(name string, def int) int {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Warn().Str("name", name).Str("value", v).Msg("invalid integer, using default")
	}
	return def
}

func nonNegativeFloat(name string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
		}
		log.Warn().Str("name", name).Str("value", v).Msg("invalid number, using default")
	}
	return def
}

func millis(name string, def time.Duration) time.Duration {
	n := positiveInt(name, int(def/time.Millisecond))
	return time.Duration(n) * time.Millisecond
}

func list(name string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(name), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
