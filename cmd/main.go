package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/quals/internal/adapters/http/api"
	"github.com/okian/quals/internal/adapters/http/swagger"
	"github.com/okian/quals/internal/adapters/repository"
	"github.com/okian/quals/internal/adapters/statsapi"
	app "github.com/okian/quals/internal/app"
	"github.com/okian/quals/internal/config"
	"github.com/okian/quals/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 120 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 15 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWith(os.Stdout, logger.Format(cfg.LogFormat)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, loggerInstance); err != nil {
		loggerInstance.Error(ctx, "server failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	svc, err := newService(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newService builds the forecast service with its configured collaborators.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	store, err := repository.NewCacheStore(ctx,
		repository.WithTTL(cfg.CacheTTL()),
		repository.WithDir(cfg.CacheDir),
		repository.WithLogger(log.Named("cache")),
	)
	if err != nil {
		return nil, err
	}
	client := statsapi.NewClient(
		statsapi.WithURL(cfg.APIURL),
		statsapi.WithTimeout(cfg.HTTPTimeout()),
		statsapi.WithRetryMax(cfg.HTTPRetryMax),
		statsapi.WithConcurrency(cfg.FetchConcurrency),
		statsapi.WithRateLimit(cfg.RateLimit),
		statsapi.WithLogger(log.Named("statsapi")),
	)

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithFetcher(client),
		app.WithStore(store),
		app.WithSeason(cfg.Season),
		app.WithTrendAlpha(cfg.TrendAlpha),
		app.WithMatchesPerTeam(cfg.MatchesPerTeam),
		app.WithMaxRetries(cfg.MaxRetries),
		app.WithTrials(cfg.Trials),
		app.WithTrialWorkers(cfg.TrialWorkers),
	}
	if cfg.Seed != 0 {
		opts = append(opts, app.WithSeed(cfg.Seed))
	}
	return app.New(opts...), nil
}

// newHandler mounts the API and its documentation.
func newHandler(cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	return api.NewServer(svc,
		api.WithBasicAuth(cfg.AuthUsername, cfg.AuthPassword),
		api.WithAllowedOrigins(cfg.Origins()...),
		api.WithDocs(swagger.Mount),
		api.WithLogger(log.Named("api")),
	).Handler()
}

// startServiceMetricsUpdater refreshes service gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes the cache gauge as a side effect.
			_ = svc.GetStats()
		}
	}
}
