package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/debtbook/internal/api"
	"github.com/mmynk/debtbook/internal/auth"
	"github.com/mmynk/debtbook/internal/config"
	"github.com/mmynk/debtbook/internal/middleware"
	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/service"
	"github.com/mmynk/debtbook/internal/storage"
	"github.com/mmynk/debtbook/internal/storage/memory"
	"github.com/mmynk/debtbook/internal/storage/postgres"
	"github.com/mmynk/debtbook/internal/storage/sqlite"
	"github.com/mmynk/debtbook/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

// localUser is the identity attached to every request when auth is disabled.
var localUser = &models.User{ID: "local", DisplayName: "Local User", Email: "local@localhost"}

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "backend", cfg.DataBackend)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(reg)

	ledger := service.NewLedgerService(store, logger)

	routes := api.RouterConfig{
		API:            api.NewHandler(ledger, logger),
		Logger:         logger,
		Metrics:        metrics,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		StaticDir:      cfg.StaticPath,
	}

	switch cfg.AuthMode {
	case config.AuthDisabled:
		logger.Warn("Authentication disabled, all requests run as the local user")
		routes.Gate = middleware.StaticUser(localUser)
		routes.Identify = middleware.StaticUser(localUser)
	default:
		sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure)
		provider := auth.NewOAuthProvider(auth.OAuthConfig{
			Issuer:                cfg.OAuthIssuer,
			ClientID:              cfg.OAuthClientID,
			ClientSecret:          cfg.OAuthClientSecret,
			RedirectURL:           cfg.OAuthRedirectURL,
			PostLogoutRedirectURL: cfg.AppBaseURL + "/login",
			OnBreakerStateChange:  metrics.ObserveBreakerState,
		})
		routes.Gate = middleware.RequireSession(sessions)
		routes.Identify = middleware.OptionalSession(sessions)
		routes.Login = auth.NewHandler(provider, sessions, logger)
		logger.Info("OAuth login enabled", "issuer", cfg.OAuthIssuer)
	}

	handler := middleware.CORS(cfg.CORSOrigin)(api.NewRouter(routes))

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		// h2c serves HTTP/2 without TLS for clients behind a plaintext proxy.
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", "address", srv.Addr, "url", cfg.AppBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DataBackend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendPostgres:
		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
