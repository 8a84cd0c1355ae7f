/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the time-clock server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (file, TIMECLOCK_* env, defaults)
  2. Build the zap logger
  3. Open SQLite and run migrations
  4. Build the schedule resolver (built-in table, preset, optional JSON file)
  5. Build the registrar (in-process lock, or Redis when enabled)
  6. Configure HTTP router and start the server

COMMAND-LINE FLAGS:
  -config  Path to a YAML config file (optional)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close Redis and database connections

EXAMPLES:
  ./server -config=./config/config.yaml
  TIMECLOCK_DB_PATH=":memory:" TIMECLOCK_LOG_FORMAT=console ./server

SEE ALSO:
  - config/config.go: Settings and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/timeclock-engine/api"
	"github.com/warp/timeclock-engine/config"
	"github.com/warp/timeclock-engine/factory"
	"github.com/warp/timeclock-engine/generic"
	"github.com/warp/timeclock-engine/logging"
	"github.com/warp/timeclock-engine/store/redis"
	"github.com/warp/timeclock-engine/store/sqlite"
	"github.com/warp/timeclock-engine/timesheet"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cal, err := cfg.CalendarSettings()
	if err != nil {
		return err
	}
	scope, err := cfg.AlternationScope()
	if err != nil {
		return err
	}

	// Store
	if cfg.DB.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DB.Path), 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	store, err := sqlite.New(cfg.DB.Path, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	resolver, err := buildResolver(cfg, logger)
	if err != nil {
		return err
	}

	// Registration lock
	registrar := generic.NewRegistrar(store, cal, scope)
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		registrar.Locker = redis.NewLocker(client, cfg.Redis.LockTTL, cfg.Redis.LockWait)
	}

	svc := timesheet.NewService(store, store, resolver, registrar, cal, logger)
	svc.MaxPeriodDays = cfg.Report.MaxDays
	handler := api.NewHandler(svc, store, logger)
	router := api.NewRouter(handler, cfg.Server.CORS.AllowOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("timezone", cal.Location.String()),
			zap.String("scope", string(scope)),
			zap.Bool("redis_lock", cfg.Redis.Enabled))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// buildResolver starts from the built-in table, registers the configured
// preset, then the definitions file; later entries replace earlier ones by code.
func buildResolver(cfg *config.Config, logger *zap.Logger) (*generic.ScheduleResolver, error) {
	anchor, err := cfg.DefaultAnchor()
	if err != nil {
		return nil, err
	}
	resolver := generic.DefaultScheduleResolver(anchor)
	schedules := factory.NewScheduleFactory()

	preset, err := timesheet.PresetSchedulesJSON(cfg.Schedule.Preset)
	if err != nil {
		return nil, err
	}
	defs, err := schedules.ParseSchedules([]byte(preset))
	if err != nil {
		return nil, fmt.Errorf("schedule preset %q: %w", cfg.Schedule.Preset, err)
	}

	if cfg.Schedule.DefinitionsFile != "" {
		fileDefs, err := schedules.LoadFile(cfg.Schedule.DefinitionsFile)
		if err != nil {
			return nil, err
		}
		defs = append(defs, fileDefs...)
	}

	for _, def := range defs {
		if err := resolver.Register(def); err != nil {
			return nil, err
		}
	}
	logger.Info("schedule definitions loaded",
		zap.String("preset", cfg.Schedule.Preset),
		zap.String("file", cfg.Schedule.DefinitionsFile),
		zap.Int("count", len(resolver.Definitions())))
	return resolver, nil
}
