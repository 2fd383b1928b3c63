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

	"github.com/joho/godotenv"

	"github.com/inklinehq/inkline/backend/internal/api"
	"github.com/inklinehq/inkline/backend/internal/cursor"
	"github.com/inklinehq/inkline/backend/internal/history"
	"github.com/inklinehq/inkline/backend/internal/palette"
	"github.com/inklinehq/inkline/backend/internal/room"
	"github.com/inklinehq/inkline/backend/internal/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	logger := setupLogger()

	registry := room.NewRegistry(palette.New())
	hub := ws.NewHub(registry, history.NewStore(), cursor.NewTracker(), logger)
	apiHandler := api.New(hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, w, r)
	})
	mux.HandleFunc("/health", apiHandler.HealthHandler)
	mux.HandleFunc("/api/stats", apiHandler.StatsHandler)
	mux.HandleFunc("/api/rooms", apiHandler.RoomsHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: corsMiddleware(mux),
	}

	go func() {
		logger.Info("server starting", "port", port)
		logger.Info("endpoints",
			"websocket", "/ws",
			"health", "GET /health",
			"stats", "GET /api/stats",
			"rooms", "GET /api/rooms")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
