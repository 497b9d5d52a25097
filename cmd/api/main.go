package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/swingsandsand/internal/adapters/http"
	"github.com/samirrijal/swingsandsand/internal/adapters/mapservice"
	natsadapter "github.com/samirrijal/swingsandsand/internal/adapters/nats"
	"github.com/samirrijal/swingsandsand/internal/adapters/valkey"
	"github.com/samirrijal/swingsandsand/internal/core/ports"
	"github.com/samirrijal/swingsandsand/internal/core/usecases"
	"github.com/samirrijal/swingsandsand/internal/pkg/config"
	"github.com/samirrijal/swingsandsand/internal/pkg/logging"
	"github.com/samirrijal/swingsandsand/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("swingsandsand-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	policy, err := usecases.ParseSupersedePolicy(cfg.Session.SupersedePolicy)
	if err != nil {
		log.Fatalf("session policy: %v", err)
	}

	// Map service
	maps, err := mapservice.New(mapservice.Options{
		OverpassURLs:   cfg.Maps.OverpassURLs,
		OSRMURL:        cfg.Maps.OSRMURL,
		MapillaryURL:   cfg.Maps.MapillaryURL,
		MapillaryToken: cfg.Maps.MapillaryToken,
		GeoIPPath:      cfg.Maps.GeoIPPath,
		Timeout:        cfg.Maps.Timeout(),
		MaxAttempts:    cfg.Maps.MaxAttempts,
		BackoffBase:    cfg.Maps.Backoff(),
	})
	if err != nil {
		log.Fatalf("map service: %v", err)
	}
	defer maps.Close()

	// Cache (optional)
	var cacheSvc ports.CacheService
	var cache *valkey.Cache
	if cfg.Valkey.Enabled {
		cache, err = valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
			cache = nil
		} else {
			defer cache.Close()
			cacheSvc = cache
		}
	}

	// NATS (optional): snapshot fan-out and WebSocket relay
	var publisher ports.SnapshotPublisher
	var natsConn *nats.Conn
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
			natsConn = pub.Conn()
		}
	}

	// Use cases
	searchSvc := usecases.NewSearchService(maps, cacheSvc, cfg.Valkey.SearchTTLSeconds)
	directionSvc := usecases.NewDirectionService(maps)
	previewSvc := usecases.NewPreviewService(maps)
	sessions := usecases.NewSessionService(usecases.SessionConfig{
		Policy:      policy,
		IdleTTL:     cfg.Session.IdleTTL(),
		MaxSessions: cfg.Session.MaxSessions,
	}, maps, searchSvc, directionSvc, previewSvc, publisher)

	if ttl := cfg.Session.IdleTTL(); ttl > 0 {
		go sessions.RunReaper(ctx, ttl/4)
	}

	deps := &http.Dependencies{
		Sessions: sessions,
		NATS:     natsConn,
		Cache:    cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024, // events are small
		AppName:      "SwingsAndSand API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, If-None-Match",
		ExposeHeaders:    "ETag, Location",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "supersede_policy", policy)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	cancel()
	sessions.Shutdown(shutdownCtx)

	slog.Info("server stopped")
}
