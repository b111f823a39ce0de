package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fomoclub/liveroom/internal/config"
	"github.com/fomoclub/liveroom/internal/live"
	"github.com/fomoclub/liveroom/internal/relay"
	"github.com/fomoclub/liveroom/internal/repository"
	"github.com/fomoclub/liveroom/internal/transport/httpapi"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	repo, err := repository.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init repository")
	}

	rooms := live.NewManager(repo, live.Options{
		QueueLimit:       cfg.QueueLimit,
		ChatHistoryLimit: cfg.ChatHistoryLimit,
	})
	relays := relay.NewManager(ctx)

	go rooms.RunPresenceSweeper(ctx, cfg.PresenceGrace/3, cfg.PresenceGrace)

	r := httpapi.SetupRouter(ctx, cfg, rooms, relays)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Live room server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
