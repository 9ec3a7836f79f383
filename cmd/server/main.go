package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/dgallion1/notioncms/internal/api"
	"github.com/dgallion1/notioncms/internal/config"
	"github.com/dgallion1/notioncms/internal/entity"
	"github.com/dgallion1/notioncms/internal/notion"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	client, err := notion.NewClient(cfg.NotionToken,
		notion.WithBaseURL(cfg.NotionAPIURL),
		notion.WithVersion(cfg.NotionVersion),
		notion.WithRateLimit(cfg.NotionRPS),
		notion.WithHTTPClient(&http.Client{Timeout: cfg.NotionTimeout}),
		notion.WithLogger(log.With("component", "notion")),
		notion.WithTracer(otel.Tracer("notioncms")),
	)
	if err != nil {
		log.Error("create notion client", "error", err)
		os.Exit(1)
	}

	collections := entity.NewCollections(cfg.Collections)
	for _, c := range []entity.Collection{entity.CollectionFAQs, entity.CollectionTeam, entity.CollectionEvents, entity.CollectionBlog} {
		if collections[c] == "" {
			log.Warn("collection not configured", "collection", c)
		}
	}
	svc := entity.NewService(client, collections, log.With("component", "entity"))

	srv := api.NewServer(svc, client.Stats(), log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		client.Close()
	}()

	log.Info("starting notioncms", "port", cfg.Port, "collections", len(cfg.Collections))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
