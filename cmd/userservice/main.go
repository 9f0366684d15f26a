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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"warden/internal/platform/config"
	"warden/internal/platform/httpserver"
	"warden/internal/platform/logger"
	"warden/internal/platform/metrics"
	"warden/internal/platform/otel"
	profilehandler "warden/internal/profile/handler"
	"warden/internal/profile/provision"
	profileservice "warden/internal/profile/service"
	"warden/internal/profile/store"
	storememory "warden/internal/profile/store/memory"
	storepostgres "warden/internal/profile/store/postgres"
)

// main wires the profile service. Startup is gated on the provisioning
// synchronizer: if the bootstrap identity cannot be resolved the process
// exits non-zero without serving.
func main() {
	if err := run(); err != nil {
		slog.Error("userservice exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.UserFromEnv()
	log := logger.New("userservice")
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := otel.Setup(ctx, "warden-userservice", cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Warn("failed to shut down tracing", "error", err)
		}
	}()

	m := metrics.New()

	profiles, closeStore, err := buildProfileStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	client := provision.NewHTTPClient(cfg.AuthBaseURL, provision.WithLogger(log))
	synchronizer := provision.NewSynchronizer(client, profiles, cfg.BootstrapEmail,
		provision.WithSyncLogger(log),
		provision.WithSyncMetrics(m),
	)
	if err := synchronizer.Synchronize(ctx); err != nil {
		return err
	}

	svc := profileservice.New(profiles, profileservice.WithLogger(log))

	router := chi.NewRouter()
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	router.Handle("/metrics", promhttp.Handler())
	profilehandler.New(svc, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting userservice", "addr", cfg.Addr, "state", synchronizer.State().String())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func buildProfileStore(ctx context.Context, cfg config.UserService, log *slog.Logger) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory profile store")
		return storememory.New(), func() {}, nil
	}

	pg, err := storepostgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	return pg, func() { pg.Close() }, nil
}
