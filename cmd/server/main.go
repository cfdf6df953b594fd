package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/copyedit/internal/api"
	"github.com/dgallion1/copyedit/internal/catalog"
	"github.com/dgallion1/copyedit/internal/config"
	"github.com/dgallion1/copyedit/internal/metrics"
	"github.com/dgallion1/copyedit/internal/session"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, closeSource := catalogSource(cfg, log)
	defer closeSource()

	var cache *catalog.RedisCache
	if cfg.RedisURL != "" {
		c, err := catalog.NewRedisCache(cfg.RedisURL, src, cfg.CatalogCacheTTL, log)
		if err != nil {
			log.Error("catalog cache unavailable, reading source directly", "error", err)
		} else {
			cache = c
			src = c
			defer c.Close()
		}
	}
	shared := catalog.NewShared(src, log)

	latency := metrics.NewLatency(time.Hour)
	sessions := session.NewStore(session.Options{
		TTL:          cfg.SessionTTL,
		MaxSessions:  cfg.MaxSessions,
		Debounce:     cfg.ValidationDebounce,
		HistoryLimit: cfg.HistoryLimit,
		Catalog:      shared,
		Recorder:     latency,
		Logger:       log,
	})
	sessions.Start(ctx)

	var apiCache api.CatalogCache
	if cache != nil {
		apiCache = cache
	}
	srv := api.NewServer(sessions, shared, apiCache, latency, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Warm the shared catalog; sessions opened before it settles load it
	// themselves.
	g.Go(func() error {
		shared.Get(ctx)
		return nil
	})

	g.Go(func() error {
		log.Info("starting copyedit", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		sessions.Stop()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// catalogSource picks the configured catalog source. The returned func
// releases it.
func catalogSource(cfg config.Config, log *slog.Logger) (catalog.Source, func()) {
	switch {
	case cfg.CatalogURL != "":
		log.Info("catalog source", "kind", "http", "url", cfg.CatalogURL)
		src := catalog.NewHTTPSource(cfg.CatalogURL, cfg.CatalogAPIKey)
		return src, src.Close
	case cfg.CatalogFile != "":
		log.Info("catalog source", "kind", "file", "path", cfg.CatalogFile)
		return catalog.FileSource{Path: cfg.CatalogFile}, func() {}
	default:
		log.Info("catalog source", "kind", "builtin")
		return catalog.Static{}, func() {}
	}
}
