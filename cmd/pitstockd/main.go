// cmd/pitstockd/main.go
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"pitstock/internal/config"
	"pitstock/internal/inventory"
	"pitstock/internal/ledger"
	"pitstock/internal/planning"
	"pitstock/internal/storage/postgres"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	ctx := context.Background()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := setupTracing(ctx, cfg.OTLPEndpoint)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to set up tracing")
		}
		defer shutdown(ctx)
	}

	db, err := sql.Open("postgres", cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to reach database")
	}

	store := postgres.NewStore(db)
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	policy := approvalPolicy(cfg)
	ledgerSvc := ledger.NewService(store, policy, logger)
	inventorySvc := inventory.NewService(store, ledgerSvc, logger)
	planningSvc := planning.NewService(store, store, logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Mount("/api/v1/parts", inventory.NewHandler(inventorySvc).Routes())
	router.Mount("/api/v1/transactions", ledger.NewHandler(ledgerSvc).Routes())
	router.Mount("/api/v1/requirements", planning.NewHandler(planningSvc).Routes())

	logger.Info().Str("port", cfg.HTTPPort).Msg("pitstockd listening")
	if err := http.ListenAndServe(":"+cfg.HTTPPort, router); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

// approvalPolicy flags high-value or high-volume entries for human review.
func approvalPolicy(cfg *config.Config) ledger.ApprovalPolicy {
	return func(t *ledger.Transaction) bool {
		if t.TotalCost.Valid && t.TotalCost.Decimal.GreaterThan(cfg.ApprovalCostThreshold) {
			return true
		}
		return t.Quantity > cfg.ApprovalQuantityThreshold
	}
}

func setupTracing(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("pitstockd"),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
