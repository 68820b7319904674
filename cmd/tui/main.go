package main

import (
	"context"
	"io"
	"os"

	"feargreed-dashboard/internal/app"
	"feargreed-dashboard/internal/config"
	"feargreed-dashboard/internal/logging"
	"feargreed-dashboard/internal/tui"
	"feargreed-dashboard/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const defaultLogFile = "feargreed-tui.log"

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	newClockFunc   = clockwork.NewRealClock
	openLogFunc    = func(path string) (io.WriteCloser, error) {
		return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	}
	runProgramFunc = func(m tea.Model) error {
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	}
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	// The terminal belongs to the dashboard, so logs go to a file.
	path := os.Getenv("LOG_FILE")
	if path == "" {
		path = defaultLogFile
	}
	out, err := openLogFunc(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to open log file")
	}
	defer out.Close()

	logger := logging.NewLoggerTo(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, out)
	logging.SetGlobal(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	stack := app.NewStack(cfg, tracer, logger, newClockFunc())
	model := tui.NewAppModel(tui.Services{
		Context:         ctx,
		Dashboard:       stack.NewController(logger),
		Clock:           stack.Clock,
		RefreshInterval: cfg.APIRefreshInterval,
		Username:        os.Getenv("USER"),
	})

	logger.Info().Str("mode", string(stack.Mode)).Msg("starting terminal dashboard")
	if err := runProgramFunc(model); err != nil {
		logger.Error().Err(err).Msg("terminal dashboard exited with error")
	}
}
