package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/preacpe/go-frost-alerts/internal/alerts"
	"github.com/preacpe/go-frost-alerts/internal/api"
	"github.com/preacpe/go-frost-alerts/internal/config"
	"github.com/preacpe/go-frost-alerts/internal/features"
	"github.com/preacpe/go-frost-alerts/internal/inference"
	"github.com/preacpe/go-frost-alerts/internal/logging"
	"github.com/preacpe/go-frost-alerts/internal/repository"
	"github.com/preacpe/go-frost-alerts/internal/sms"
	"github.com/preacpe/go-frost-alerts/internal/weather"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Simulation vs real gateway is decided here, once, from config.
	var gateway sms.Gateway = sms.SimulatedGateway{}
	if cfg.SMS.Configured() {
		gateway = sms.NewTwilioGateway(cfg.SMS)
	} else {
		slog.Warn("SMS gateway not configured, running in simulation mode")
	}
	smsSvc := sms.NewService(gateway)

	fetcher := weather.NewClient(cfg.Weather)
	builder := features.NewBuilder(fetcher, clockwork.NewRealClock())
	inferer := inference.NewClient(
		inference.NewSubprocessBackend(cfg.Inference),
		inference.NewHeuristicBackend(cfg.Heuristic),
	)

	dispatcher := alerts.NewDispatcher(cfg.Dispatch.Workers, cfg.Dispatch.BufferSize, smsSvc, db)
	dispatcher.Start(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))
	router.Use(api.RateLimitMiddleware(5, 10))

	handler := api.NewHandler(builder, inferer, smsSvc, db, dispatcher, cfg.Inference.Threshold)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	dispatcher.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
