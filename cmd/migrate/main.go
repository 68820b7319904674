package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"feargreed-dashboard/internal/db"
	"feargreed-dashboard/internal/logging"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = "usage: go run ./cmd/migrate [up|down|version] [steps]"

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	loadEnvFunc      = godotenv.Load
	initPostgresFunc = db.InitPostgres
	filenamePattern  = regexp.MustCompile(`^migrations/(\d+)_([a-z0-9_]+)\.(up|down)\.sql$`)
)

type migration struct {
	Version int64
	Name    string
	UpSQL   string
	DownSQL string
}

// versionStore records which migrations have run. Apply and Revert execute
// the script and the bookkeeping row atomically.
type versionStore interface {
	Applied(ctx context.Context) ([]int64, error)
	Latest(ctx context.Context) (int64, string, error)
	Apply(ctx context.Context, m migration) error
	Revert(ctx context.Context, m migration) error
}

type migrator struct {
	store      versionStore
	migrations []migration
	logger     zerolog.Logger
}

func main() {
	loadEnvFunc()
	logger := logging.NewLogger(logging.Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	})
	logging.SetGlobal(logger)

	if len(os.Args) < 2 {
		log.Fatal().Msg(usage)
	}

	ctx := context.Background()
	initPostgresFunc(ctx)
	if db.Pool == nil {
		log.Fatal().Msg("postgres unavailable, check DATABASE_URL")
	}
	defer db.Close()

	store := &pgStore{pool: db.Pool}
	if err := store.ensureTable(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure schema_migrations table")
	}

	migrations, err := loadMigrations(migrationsFS)
	if err != nil {
		log.Fatal().Err(err).Msg("load migrations")
	}
	m := &migrator{store: store, migrations: migrations, logger: logger}

	if err := m.run(ctx, os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
}

func (m *migrator) run(ctx context.Context, args []string) error {
	switch args[0] {
	case "up":
		n, err := m.up(ctx)
		if err != nil {
			return fmt.Errorf("up: %w", err)
		}
		m.logger.Info().Int("applied", n).Msg("migrations up complete")
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid down steps %q", args[1])
			}
			steps = n
		}
		n, err := m.down(ctx, steps)
		if err != nil {
			return fmt.Errorf("down: %w", err)
		}
		m.logger.Info().Int("rolled_back", n).Msg("migrations down complete")
	case "version":
		version, name, err := m.store.Latest(ctx)
		if err != nil {
			return fmt.Errorf("read current version: %w", err)
		}
		if version == 0 {
			m.logger.Info().Msg("no migrations applied")
			return nil
		}
		m.logger.Info().Int64("version", version).Str("name", name).Msg("current schema version")
	default:
		return errors.New(usage)
	}
	return nil
}

// up applies every migration not yet recorded, in version order.
func (m *migrator) up(ctx context.Context) (int, error) {
	applied, err := m.store.Applied(ctx)
	if err != nil {
		return 0, err
	}
	done := make(map[int64]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	count := 0
	for _, mig := range m.migrations {
		if done[mig.Version] {
			continue
		}
		if err := m.store.Apply(ctx, mig); err != nil {
			return count, fmt.Errorf("version %d: %w", mig.Version, err)
		}
		m.logger.Info().Int64("version", mig.Version).Str("name", mig.Name).Msg("applied migration")
		count++
	}
	return count, nil
}

// down reverts the newest steps applied migrations.
func (m *migrator) down(ctx context.Context, steps int) (int, error) {
	applied, err := m.store.Applied(ctx)
	if err != nil {
		return 0, err
	}
	byVersion := make(map[int64]migration, len(m.migrations))
	for _, mig := range m.migrations {
		byVersion[mig.Version] = mig
	}

	count := 0
	for i := len(applied) - 1; i >= 0 && count < steps; i-- {
		mig, ok := byVersion[applied[i]]
		if !ok {
			return count, fmt.Errorf("no source for applied version %d", applied[i])
		}
		if err := m.store.Revert(ctx, mig); err != nil {
			return count, fmt.Errorf("version %d: %w", mig.Version, err)
		}
		m.logger.Info().Int64("version", mig.Version).Str("name", mig.Name).Msg("reverted migration")
		count++
	}
	return count, nil
}

func parseFilename(path string) (version int64, name, direction string, err error) {
	parts := filenamePattern.FindStringSubmatch(path)
	if parts == nil {
		return 0, "", "", fmt.Errorf("invalid migration filename: %s", path)
	}
	version, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, "", "", fmt.Errorf("parse version in %s: %w", path, err)
	}
	return version, parts[2], parts[3], nil
}

func loadMigrations(fsys fs.FS) ([]migration, error) {
	paths, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.New("no migration files found")
	}

	byVersion := make(map[int64]*migration)
	for _, p := range paths {
		version, name, direction, err := parseFilename(p)
		if err != nil {
			return nil, err
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		script := strings.TrimSpace(string(raw))
		if script == "" {
			return nil, fmt.Errorf("empty migration file: %s", p)
		}

		mig := byVersion[version]
		if mig == nil {
			mig = &migration{Version: version, Name: name}
			byVersion[version] = mig
		}
		if mig.Name != name {
			return nil, fmt.Errorf("version %d has two names: %s and %s", version, mig.Name, name)
		}

		target := &mig.UpSQL
		if direction == "down" {
			target = &mig.DownSQL
		}
		if *target != "" {
			return nil, fmt.Errorf("duplicate %s migration for version %d", direction, version)
		}
		*target = script
	}

	out := make([]migration, 0, len(byVersion))
	for _, mig := range byVersion {
		if mig.UpSQL == "" || mig.DownSQL == "" {
			return nil, fmt.Errorf("migration version %d must include both up and down files", mig.Version)
		}
		out = append(out, *mig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

type pgStore struct {
	pool *pgxpool.Pool
}

func (s *pgStore) ensureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version     BIGINT PRIMARY KEY,
    name        TEXT NOT NULL,
    applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`)
	return err
}

func (s *pgStore) Applied(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (s *pgStore) Latest(ctx context.Context) (int64, string, error) {
	var (
		version int64
		name    string
	)
	err := s.pool.QueryRow(ctx, `SELECT version, name FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &name)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, "", nil
	}
	return version, name, err
}

func (s *pgStore) Apply(ctx context.Context, m migration) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, m.UpSQL); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name)
		return err
	})
}

func (s *pgStore) Revert(ctx context.Context, m migration) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, m.DownSQL); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, m.Version)
		return err
	})
}
