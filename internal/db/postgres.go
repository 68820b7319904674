package db

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Pool is nil when DATABASE_URL is unset or the database is unreachable.
var Pool *pgxpool.Pool

const connectTimeout = 5 * time.Second

var (
	parsePoolConfig = pgxpool.ParseConfig
	newPool         = pgxpool.NewWithConfig
	pingPool        = func(ctx context.Context, pool *pgxpool.Pool) error {
		return pool.Ping(ctx)
	}
)

// InitPostgres opens the reading history pool. History is optional, so
// connection problems are logged and Pool stays nil.
func InitPostgres(ctx context.Context) {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		log.Info().Msg("DATABASE_URL not set, reading history disabled")
		return
	}

	cfg, err := parsePoolConfig(dsn)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse DATABASE_URL")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := newPool(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to create postgres pool")
		return
	}
	if err := pingPool(ctx, pool); err != nil {
		log.Error().Err(err).Str("host", cfg.ConnConfig.Host).Msg("failed to connect to Postgres")
		pool.Close()
		return
	}
	Pool = pool
	log.Info().Str("host", cfg.ConnConfig.Host).Msg("connected to Postgres")
}

// Close releases the pool if one was opened.
func Close() {
	if Pool != nil {
		Pool.Close()
		Pool = nil
	}
}
