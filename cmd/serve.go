package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/numguess/internal/config"
	"github.com/robalobadob/numguess/internal/db"
	"github.com/robalobadob/numguess/internal/httpserver"
	"github.com/robalobadob/numguess/internal/store"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve games over HTTP and WebSocket",
		Long: `Serve games over HTTP and WebSocket.

Configuration is read from the environment (and a .env file when present):
PORT, LOG_LEVEL, LOG_FORMAT, APP_ENV, DATABASE_PATH, GAME_STORE, JWT_SECRET,
JWT_EXPIRES_DAYS, COOKIE_NAME, CLIENT_ORIGIN, MAX_GUESSES, MAX_RANGE,
REQUEST_TIMEOUT, RATE_LIMIT, RATE_BURST.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			setupLogging(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
	return cmd
}

func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// serve runs the server until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, cfg config.Config) error {
	conn, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var st store.Store
	switch cfg.GameStore {
	case "memory":
		st = store.NewMemoryStore()
	default:
		st = store.NewSQLStore(conn)
	}

	hs := httpserver.New(cfg, st, conn).HTTPServer(cfg.Addr())
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", hs.Addr).Str("store", cfg.GameStore).Str("env", cfg.Env).Msg("starting numguess")
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
