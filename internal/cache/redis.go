package cache

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	dialTimeout = 3 * time.Second
	pingTimeout = 2 * time.Second
)

// Client is nil when REDIS_URL is unset or the server is unreachable.
var Client *redis.Client

var (
	newRedisClient = redis.NewClient
	pingRedis      = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
)

// InitRedis connects to REDIS_URL, which may be a bare host:port or a
// redis:// URL. Redis only carries the reading fan-out, so failures leave
// Client nil instead of stopping the process.
func InitRedis(ctx context.Context) {
	raw := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if raw == "" {
		log.Info().Msg("REDIS_URL not set, reading fan-out disabled")
		return
	}

	opts, err := redisOptions(raw)
	if err != nil {
		log.Error().Err(err).Msg("invalid REDIS_URL, reading fan-out disabled")
		return
	}

	client := newRedisClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pingRedis(pingCtx, client); err != nil {
		log.Error().Err(err).Str("addr", opts.Addr).Msg("redis unreachable, reading fan-out disabled")
		_ = client.Close()
		return
	}

	Client = client
	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("connected to Redis")
}

func redisOptions(raw string) (*redis.Options, error) {
	if !strings.Contains(raw, "://") {
		return &redis.Options{Addr: raw, DialTimeout: dialTimeout}, nil
	}
	opts, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = dialTimeout
	}
	return opts, nil
}
