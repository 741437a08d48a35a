package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/KJ87SAT/Fortify-DashBoard/internal/adapter/discord"
	"github.com/KJ87SAT/Fortify-DashBoard/internal/adapter/filestore"
	"github.com/KJ87SAT/Fortify-DashBoard/internal/adapter/httpserver"
	"github.com/KJ87SAT/Fortify-DashBoard/internal/adapter/memory"
	"github.com/KJ87SAT/Fortify-DashBoard/internal/adapter/metrics"
	"github.com/KJ87SAT/Fortify-DashBoard/internal/adapter/postgres"
	"github.com/KJ87SAT/Fortify-DashBoard/internal/adapter/redis"
	"github.com/KJ87SAT/Fortify-DashBoard/internal/app"
	"github.com/KJ87SAT/Fortify-DashBoard/internal/domain"
	"github.com/KJ87SAT/Fortify-DashBoard/internal/platform/config"
	"github.com/KJ87SAT/Fortify-DashBoard/internal/platform/logging"
	"github.com/KJ87SAT/Fortify-DashBoard/internal/platform/session"
	"github.com/KJ87SAT/Fortify-DashBoard/internal/platform/version"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

// pingableStore is a settings store that can report readiness.
type pingableStore interface {
	domain.SettingsStore
	Ping(ctx context.Context) error
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// setupStore opens the configured backend. The returned cleanup releases its connections.
func setupStore(cfg *config.Config, reg prometheus.Registerer, clock clockwork.Clock) (pingableStore, func()) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	switch cfg.StorageBackend {
	case config.BackendMemory:
		slog.Warn("Using in-memory settings store, settings are lost on restart")
		return memory.New(), func() {}

	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL,
			postgres.WithTracer(postgres.NewMetricsTracer(metrics.NewDBMetrics(reg), clock)))
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		if err := postgres.MigrateSchema(ctx, pool); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		return postgres.NewSettingsRepo(pool), pool.Close

	case config.BackendRedis:
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		client.AddHook(redis.NewMetricsHook(metrics.NewRedisMetrics(reg), clock))
		return redis.NewSettingsStore(client), func() { _ = client.Close() }

	default:
		store, err := filestore.New(cfg.SettingsDir)
		if err != nil {
			slog.Error("Failed to open settings directory", "dir", cfg.SettingsDir, "error", err)
			os.Exit(1)
		}
		return store, func() {}
	}
}

func runGracefulShutdown(srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "storage", cfg.StorageBackend, "version", version.Get().String())

	reg := metrics.NewRegistry()

	store, closeStore := setupStore(cfg, reg, clock)
	defer closeStore()
	instrumented := metrics.NewInstrumentedStore(store, cfg.StorageBackend, metrics.NewStoreMetrics(reg), clock)

	discordClient, err := discord.NewClient(discord.Config{
		ClientID:     cfg.DiscordClientID,
		ClientSecret: cfg.DiscordClientSecret,
		RedirectURI:  cfg.DiscordRedirectURI,
		BotToken:     cfg.DiscordBotToken,
	}, discord.WithObserver(metrics.NewDiscordMetrics(reg)), discord.WithClock(clock))
	if err != nil {
		slog.Error("Failed to create Discord client", "error", err)
		os.Exit(1)
	}

	codec, err := session.NewCodec([]byte(cfg.SessionSecret))
	if err != nil {
		slog.Error("Failed to create session codec", "error", err)
		os.Exit(1)
	}

	appSvc := app.NewService(discordClient, instrumented)

	srv, err := httpserver.NewServer(cfg, appSvc, discordClient, codec,
		httpserver.WithClock(clock),
		httpserver.WithMetrics(metrics.NewHTTPMetrics(reg), metrics.Handler(reg)),
		httpserver.WithHealthChecks(httpserver.HealthCheck{Name: "settings_store", Check: store.Ping}),
	)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
