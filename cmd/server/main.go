package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/mmuslimabdulj/tunelink/internal/auth"
	"github.com/mmuslimabdulj/tunelink/internal/config"
	httpHandler "github.com/mmuslimabdulj/tunelink/internal/delivery/http"
	"github.com/mmuslimabdulj/tunelink/internal/delivery/ws"
	"github.com/mmuslimabdulj/tunelink/internal/middleware"
	"github.com/mmuslimabdulj/tunelink/internal/storage"
)

func main() {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(log)

	if cfg.AuthSecret == "" {
		log.Warn("AUTH_SECRET is empty, all connections will be rejected")
	}

	// Durable message store
	badgerOpts := badger.DefaultOptions(cfg.DataDir).WithLogger(nil)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		log.Error("open message store", "dir", cfg.DataDir, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Wire the core
	repo := storage.NewMessageRepository(db, log)
	hub := ws.NewHub(repo, log)
	verifier := auth.NewVerifier(cfg.AuthSecret)
	handler := httpHandler.NewHandler(cfg, hub, verifier, repo, log)

	apiLimiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitAPI), 2*cfg.RateLimitAPI)
	wsLimiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitWS), 2*cfg.RateLimitWS)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", middleware.RateLimitFunc(wsLimiter, handler.HandleWebSocket))
	mux.HandleFunc("/api/users/messages/", middleware.RateLimitFunc(apiLimiter, handler.HandleMessages))
	mux.HandleFunc("/healthz", handler.HandleHealth)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.SecurityHeaders(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("tunelink realtime service listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "err", err)
	}

	log.Info("server exited")
}
