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

	"github.com/mezehub/ordering/internal/cart"
	"github.com/mezehub/ordering/internal/catalog"
	catalogsqlite "github.com/mezehub/ordering/internal/catalog/sqlite"
	"github.com/mezehub/ordering/internal/httpx"
	"github.com/mezehub/ordering/internal/order"
	oplogsqlite "github.com/mezehub/ordering/internal/order/oplog/sqlite"
	ordersqlite "github.com/mezehub/ordering/internal/order/sqlite"
	"github.com/mezehub/ordering/internal/pkg/telemetry"
	"github.com/mezehub/ordering/internal/realtime"
)

func main() {
	_ = godotenv.Load()
	telemetry.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "storefront"))
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	catalogRepo, err := catalogsqlite.Open(getEnv("CATALOG_DB_PATH", "data/catalog.db"))
	if err != nil {
		slog.Error("failed to open catalog database", "error", err)
		os.Exit(1)
	}
	defer catalogRepo.Close()

	orderRepo, err := ordersqlite.Open(getEnv("ORDERS_DB_PATH", "data/orders.db"))
	if err != nil {
		slog.Error("failed to open orders database", "error", err)
		os.Exit(1)
	}
	defer orderRepo.Close()

	oplogRepo, err := oplogsqlite.Open(getEnv("OPLOG_DB_PATH", "data/oplog.db"))
	if err != nil {
		slog.Error("failed to open submission log database", "error", err)
		os.Exit(1)
	}
	defer oplogRepo.Close()

	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	snapshotTTL := getDuration("CATALOG_SNAPSHOT_TTL", 5*time.Minute)
	snapshots := catalog.NewSnapshotService(catalogRepo, catalog.NewRedisCache(redisAddr, snapshotTTL))
	cartStorage := cart.NewRedisStorage(redisAddr)

	hub := realtime.NewHub()
	notifier := realtime.NewNotifier(hub)

	submitter := order.NewSubmitter(orderRepo, oplogRepo, hub, notifier)
	statusSvc := order.NewStatusService(orderRepo, hub)

	jwtKey := []byte(getEnv("JWT_SECRET", "dev-secret"))

	handler := httpx.NewHandler(catalogRepo, snapshots, cartStorage, notifier, submitter, statusSvc, orderRepo, hub)
	router := httpx.NewRouter(handler, jwtKey)

	addr := ":" + getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("storefront running", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	slog.Info("storefront stopped")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
