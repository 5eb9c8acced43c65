package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"realtime-service/internal/api/routes"
	"realtime-service/internal/config"
	"realtime-service/internal/database"
	"realtime-service/internal/realtime"
	"realtime-service/internal/services"
	"realtime-service/internal/session"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; environment variables win either way
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting realtime server")

	redisClient, err := database.NewRedisConnection(&cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	db, err := database.NewPostgresConnection(cfg.Database.URI)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	sessions := session.NewStore(
		redisClient.GetClient(),
		cfg.Session.JWTSecret,
		cfg.Session.TTL,
		cfg.Session.ResolveTimeout,
	)
	presence := services.NewPresenceService(redisClient.GetClient())

	// One registry owns all room membership; both channels share it. The
	// chat channel's dispatcher must run before connections arrive.
	registry := realtime.NewRegistry()
	chat := realtime.NewChatChannel(registry, presence)
	notifications := realtime.NewNotificationChannel(registry)
	go chat.Run()

	router := routes.NewRouter(cfg, db, sessions, chat, notifications)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	chat.Stop()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
