// cmd/registry/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rejestr/internal/archive"
	"rejestr/internal/circles"
	"rejestr/internal/config"
	"rejestr/internal/dues"
	"rejestr/internal/identity"
	"rejestr/internal/lifecycle"
	"rejestr/internal/registry"
	"rejestr/internal/roles"
	"rejestr/internal/scheduler"
	"rejestr/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("registry service failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(ctx, "rejestr", cfg.Tracing.OTLPEndpoint)
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.Data.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return err
	}

	memberStore := registry.NewStore(db)
	archiveStore := archive.NewStore(db)
	for _, ensure := range []func(context.Context) error{
		memberStore.EnsureSchema,
		archiveStore.EnsureSchema,
		func(ctx context.Context) error { return circles.EnsureSchema(ctx, db) },
	} {
		if err := ensure(ctx); err != nil {
			return err
		}
	}

	resolver := roles.NewResolver(
		cfg.Roles.NationalAdmins, cfg.Roles.RegionalAdmins,
		cfg.Roles.NationalAuditor, cfg.Roles.AuditorPrefix)

	epoch, err := cfg.Dues.EpochDate()
	if err != nil {
		return err
	}
	rates := make(dues.RateTable, 0, len(cfg.Dues.Rates))
	for _, t := range cfg.Dues.Rates {
		rates = append(rates, dues.RateTier{MinAge: t.MinAge, MaxAge: t.MaxAge, Rate: t.Rate})
	}
	engine := dues.NewEngine(epoch, rates)

	memberService := registry.NewService(memberStore, engine, archiveStore)
	lifecycleService := lifecycle.NewService(memberStore, archiveStore, logger)
	circleService := circles.NewService(db)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recalc := scheduler.NewScheduler(memberStore, engine, logger, promRegistry)
	go recalc.Run(ctx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	localCreds := make([]identity.Credential, 0, len(cfg.Roles.LocalCredentials))
	for _, c := range cfg.Roles.LocalCredentials {
		localCreds = append(localCreds, identity.Credential{
			Role: c.Role, SecretHash: c.SecretHash, Salt: c.Salt,
		})
	}
	router.Use(identity.Middleware(resolver, cfg.Roles.OrgDomain, identity.NewKeyring(localCreds)))

	registry.NewHandler(memberService).Mount(router)
	lifecycle.NewHandler(lifecycleService).Mount(router)
	circles.NewHandler(circleService).Mount(router)
	scheduler.NewHandler(recalc).Mount(router)
	router.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("registry service listening", "port", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return shutdownTracing(shutdownCtx)
}
