package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/powerpay/backend/internal/auth"
	"github.com/powerpay/backend/internal/ledger"
	"github.com/powerpay/backend/internal/random"
	"github.com/powerpay/backend/internal/service"
	"github.com/powerpay/backend/internal/storage"
	"github.com/powerpay/backend/internal/storage/memory"
	"github.com/powerpay/backend/internal/storage/redis"
	"github.com/powerpay/backend/internal/storage/sqlite"
	"github.com/powerpay/backend/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// newStore picks the persistence backend from the STORE env var.
// The in-memory store is the default so the server runs with no setup.
func newStore() (storage.Store, error) {
	switch backend := getEnv("STORE", "memory"); backend {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlite.New(getEnv("DB_PATH", "./data/channels.db"))
	case "redis":
		db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		return redis.New(getEnv("REDIS_ADDR", "localhost:6379"), os.Getenv("REDIS_PASSWORD"), db)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func main() {
	logging.Setup()

	store, err := newStore()
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "backend", getEnv("STORE", "memory"))

	led := ledger.New(store, random.NewCryptoSource())

	// Authentication is optional: without AUTH_SECRET the API is open.
	var tokens *auth.Manager
	if secret := os.Getenv("AUTH_SECRET"); secret != "" {
		tokens = auth.NewManager(secret, 24*time.Hour)
		slog.Info("JWT authentication enabled")
	}

	testRoutes := getEnv("ENABLE_TEST_ROUTES", "false") == "true"
	if testRoutes {
		slog.Warn("Test routes enabled, settlement outcomes can be forced")
	}

	handler := service.NewHandler(led, testRoutes)
	router := service.NewRouter(handler, tokens)

	addr := ":" + getEnv("PORT", "3000")
	slog.Info("Payment channel server starting", "address", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
