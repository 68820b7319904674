package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"feargreed-dashboard/internal/app"
	"feargreed-dashboard/internal/config"
	"feargreed-dashboard/internal/tui"
	"feargreed-dashboard/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	gossh "golang.org/x/crypto/ssh"
)

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	initTracerFunc    = tracing.InitTracer
	newClockFunc      = clockwork.NewRealClock
	newWishServerFunc = wish.NewServer
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()
	logger := app.NewLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	// Sources are shared, each session gets its own controller
	stack := app.NewStack(cfg, tracer, logger, newClockFunc())

	if len(cfg.SSHAuthorizedFingerprints) == 0 {
		logger.Warn().Msg("SSH_AUTHORIZED_FINGERPRINTS empty, accepting any public key")
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)
	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(publicKeyAuth(logger, cfg.SSHAuthorizedFingerprints)),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				return sessionModel(s, stack, cfg, logger), []tea.ProgramOption{tea.WithAltScreen()}
			}),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create SSH server")
	}

	if srv != nil {
		go func() {
			logger.Info().Str("addr", addr).Msg("SSH server listening")
			if err := srv.ListenAndServe(); err != nil {
				logger.Info().Err(err).Msg("SSH server stopped")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logger.Info().Msg("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("SSH server shutdown error")
		}
	}

	logger.Info().Msg("SSH server exited")
}

// publicKeyAuth admits keys whose SHA256 fingerprint is listed. An empty
// list admits every key.
func publicKeyAuth(logger zerolog.Logger, fingerprints []string) ssh.PublicKeyHandler {
	allowed := make(map[string]struct{}, len(fingerprints))
	for _, fp := range fingerprints {
		allowed[fp] = struct{}{}
	}
	return func(ctx ssh.Context, key ssh.PublicKey) bool {
		fingerprint := gossh.FingerprintSHA256(key)
		if len(allowed) == 0 {
			return true
		}
		if _, ok := allowed[fingerprint]; !ok {
			logger.Warn().Str("fingerprint", fingerprint).Msg("SSH auth denied")
			return false
		}
		logger.Info().Str("fingerprint", fingerprint).Msg("SSH auth accepted")
		return true
	}
}

func sessionModel(s ssh.Session, stack *app.Stack, cfg *config.Config, logger zerolog.Logger) *tui.AppModel {
	sessionLogger := logger.With().Str("ssh_user", s.User()).Logger()
	controller := stack.NewController(sessionLogger)

	model := tui.NewAppModel(tui.Services{
		Context:         s.Context(),
		Dashboard:       controller,
		Clock:           stack.Clock,
		RefreshInterval: cfg.APIRefreshInterval,
		Username:        s.User(),
	})
	pty, _, _ := s.Pty()
	model.SetSize(pty.Window.Width, pty.Window.Height)
	return model
}
