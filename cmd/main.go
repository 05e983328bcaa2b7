package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/palmares/internal/adapters/http/api"
	"github.com/okian/palmares/internal/adapters/http/swagger"
	"github.com/okian/palmares/internal/adapters/mcpserver"
	"github.com/okian/palmares/internal/adapters/repository"
	service "github.com/okian/palmares/internal/app"
	"github.com/okian/palmares/internal/config"
	"github.com/okian/palmares/internal/telemetry"
	"github.com/okian/palmares/pkg/logger"
	"github.com/okian/palmares/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithJSON(cfg.LogJSON)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, "palmares", cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn(ctx, "tracer shutdown failed", logger.Error(err))
		}
	}()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "store close failed", logger.Error(err))
		}
	}()

	svc := newService(cfg, store, log)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	// Stop drains queued captures before the store is closed.
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           buildMux(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("store_backend", cfg.StoreBackend),
			logger.Bool("mcp", cfg.MCPEnabled),
		)
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

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	return repository.Open(ctx, cfg.StoreBackend, cfg.DataDir, cfg.SQLitePath, repository.WithLogger(log))
}

func newService(cfg *config.Config, store repository.Store, log logger.Logger) *service.Service {
	return service.New(store,
		service.WithLogger(log),
		service.WithQueueSize(cfg.CaptureQueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithDefaults(cfg.DefaultSeason, cfg.DefaultRound),
		service.WithGeneralName(cfg.GeneralCompetition),
	)
}

// buildMux registers docs, API and, when enabled, MCP routes.
func buildMux(ctx context.Context, cfg *config.Config, svc *service.Service, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, log).Register(ctx, mux)
	if cfg.MCPEnabled {
		mux.Handle(cfg.MCPPath, mcpserver.Handler(mcpserver.NewServer(svc, log)))
	}
	return mux
}

// startSystemMetricsUpdater refreshes process gauges until ctx ends.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
