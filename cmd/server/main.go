package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scopesprint/scopesprint/internal/archive"
	"github.com/scopesprint/scopesprint/internal/config"
	"github.com/scopesprint/scopesprint/internal/gateway"
	"github.com/scopesprint/scopesprint/internal/publish"
	"github.com/scopesprint/scopesprint/internal/workshop"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", cfg.Server.LogLevel).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := workshop.NewStore(cfg.Workshop.SessionBudgetSec)

	connectionManager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	go connectionManager.Start(ctx)

	var publisher workshop.Publisher
	if cfg.NATS.URL != "" {
		natsPublisher, err := publish.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect lifecycle publisher")
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	var workshopArchive workshop.Archive
	if cfg.Database.URL != "" {
		repo, err := archive.NewRepository(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect workshop archive")
		}
		defer repo.Close()
		workshopArchive = repo
	}

	router := workshop.NewRouter(ctx, workshop.RouterConfig{
		Store:       store,
		Broadcaster: connectionManager,
		Publisher:   publisher,
		Archive:     workshopArchive,
	})

	handler := gateway.NewHandler(connectionManager, router)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	corsWrapper := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	})

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: corsWrapper.Handler(mux),
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("scopesprint server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
