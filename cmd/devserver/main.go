package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/finance-client/internal/config"
	"github.com/dvloznov/finance-client/internal/devserver"
	"github.com/dvloznov/finance-client/internal/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Failed to load config")
	}

	port := flag.String("port", cfg.DevPort, "HTTP server port (or set FINANCE_DEV_PORT)")
	flag.Parse()

	log := logger.NewWithLevel(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", ":"+*port)
	if err != nil {
		log.Fatal().Err(err).Str("port", *port).Msg("Failed to listen")
	}

	if err := serve(ctx, newServer(log), ln, log); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("Server exited")
}

// newServer wires the in-memory dev backend behind an http.Server.
func newServer(log zerolog.Logger) *http.Server {
	srv := devserver.New(devserver.NewStore(bcrypt.DefaultCost), log)
	return &http.Server{
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// serve runs server on ln until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, server *http.Server, ln net.Listener, log zerolog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Msg("Starting dev server")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
