package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/8adimka/chat-gateway/internal/chat"
	"github.com/8adimka/chat-gateway/internal/chat/model"
	"github.com/8adimka/chat-gateway/internal/config"
	"github.com/8adimka/chat-gateway/internal/httpx"
	"github.com/8adimka/chat-gateway/internal/logging"
	"github.com/8adimka/chat-gateway/internal/metrics"
	"github.com/8adimka/chat-gateway/internal/mongox"
	"github.com/8adimka/chat-gateway/internal/otel"
	"github.com/8adimka/chat-gateway/internal/rasa"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	ctx := context.Background()

	// Load configuration from .env file
	cfg := config.Load()

	// Structured logging to console and chatbot.log
	logCloser := logging.Setup(cfg.LogFile)
	defer logCloser.Close()

	// Initialize OpenTelemetry
	shutdown, err := otel.InitOpenTelemetry(ctx, "chat-gateway")
	if err != nil {
		slog.Error("Failed to initialize OpenTelemetry", "error", err)
		os.Exit(1)
	}
	defer shutdown(ctx)

	appMetrics, err := metrics.NewMetrics(otel.GetMeter())
	if err != nil {
		slog.Error("Failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	// Connect to MongoDB in the background; the gateway serves (and answers
	// /health) while the connection is still coming up.
	mongo := mongox.NewManager(cfg.MongoURI, cfg.MongoRetryDelay)
	mongo.Start(ctx)

	repo := model.New(mongo)
	engine := rasa.New(cfg.RasaURL, cfg.RasaTimeout)

	server := chat.NewServer(engine, repo, mongo, cfg.RasaURL, appMetrics)

	// Configure handler
	handler := mux.NewRouter()
	handler.Use(
		httpx.OTelMiddleware(),
		httpx.RequestID(),
		httpx.Logger(),
		httpx.Recovery(),
		httpx.CORS(cfg.FrontendURL),
		appMetrics.HTTPMetricsMiddleware(),
	)

	handler.HandleFunc("/health", server.HealthHandler).Methods(http.MethodGet)
	handler.HandleFunc("/chat", server.ChatHandler).Methods(http.MethodPost, http.MethodOptions)

	// Metrics endpoint
	handler.Handle("/metrics", promhttp.Handler())

	// Start the server with graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting the server...", "port", cfg.Port, "rasa_url", cfg.RasaURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for termination signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	// Bounded drain: stop accepting connections, then close MongoDB without
	// aborting in-flight operations.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	if err := mongo.Close(shutdownCtx); err != nil {
		slog.Error("Failed to close MongoDB connection", "error", err)
	} else {
		slog.Info("MongoDB connection closed")
	}

	slog.Info("Server exited")
}
