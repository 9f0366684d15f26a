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
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"warden/internal/auth/credentials"
	authhandler "warden/internal/auth/handler"
	authservice "warden/internal/auth/service"
	"warden/internal/auth/store"
	storememory "warden/internal/auth/store/memory"
	storepostgres "warden/internal/auth/store/postgres"
	"warden/internal/auth/store/purpose"
	"warden/internal/notify"
	"warden/internal/platform/config"
	"warden/internal/platform/httpserver"
	"warden/internal/platform/kafka"
	"warden/internal/platform/logger"
	"warden/internal/platform/metrics"
	"warden/internal/platform/otel"
	platformredis "warden/internal/platform/redis"
	"warden/internal/token"
	"warden/pkg/platform/audit"
)

// main wires the authentication service: credential store, token stores,
// token issuer, notification pipeline and the HTTP surface. Business logic
// lives in the internal packages.
func main() {
	if err := run(); err != nil {
		slog.Error("authservice exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.AuthFromEnv()
	log := logger.New("authservice")
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := otel.Setup(ctx, "warden-authservice", cfg.OTelEndpoint)
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

	credStore, closeStore, err := buildCredentialStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	tokenStore, closeTokens, err := buildTokenStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeTokens()

	manager := credentials.NewManager(credStore, tokenStore)
	issuer := token.NewIssuer(cfg.JWT.Secret, cfg.JWT.ValidIssuer, cfg.JWT.ValidAudience)
	mailer := notify.NewMailer(buildSink(cfg, log))
	links := notify.NewLinks(cfg.Frontend)

	opts := []authservice.Option{
		authservice.WithLogger(log),
		authservice.WithMetrics(m),
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close()
		opts = append(opts, authservice.WithAuditPublisher(audit.NewKafkaPublisher(producer)))
		log.Info("security audit publisher enabled", "brokers", cfg.KafkaBrokers)
	}

	svc := authservice.New(manager, issuer, mailer, links, opts...)

	router := chi.NewRouter()
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	router.Handle("/metrics", promhttp.Handler())
	authhandler.New(svc, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting authservice", "addr", cfg.Addr)

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

func buildCredentialStore(ctx context.Context, cfg config.AuthService, log *slog.Logger) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory credential store")
		return storememory.New(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	pg := storepostgres.New(db)
	if err := pg.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return pg, func() { db.Close() }, nil
}

func buildTokenStore(cfg config.AuthService, log *slog.Logger) (purpose.TokenStore, func(), error) {
	rc, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if rc == nil {
		log.Warn("REDIS_URL not set, using in-memory purpose token store")
		return purpose.NewMemory(), func() {}, nil
	}
	return purpose.NewRedis(rc.Client), func() { rc.Close() }, nil
}

func buildSink(cfg config.AuthService, log *slog.Logger) notify.Sink {
	if cfg.SMTP.Host == "" {
		log.Warn("SMTP_HOST not set, notifications are recorded in memory only")
		return notify.NewMemorySink()
	}
	return notify.NewSMTPSink(cfg.SMTP)
}
