package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"weekgrid-service/internal/config"
	availabilityGet "weekgrid-service/internal/http-server/handlers/availability/get"
	calendarExport "weekgrid-service/internal/http-server/handlers/calendar/export"
	peopleGet "weekgrid-service/internal/http-server/handlers/people/get"
	recurrenceCreate "weekgrid-service/internal/http-server/handlers/recurrences/create"
	rosterGet "weekgrid-service/internal/http-server/handlers/roster/get"
	slotSet "weekgrid-service/internal/http-server/handlers/slots/set"
	slotToggle "weekgrid-service/internal/http-server/handlers/slots/toggle"
	snapshotRefresh "weekgrid-service/internal/http-server/handlers/snapshot/refresh"
	weekGet "weekgrid-service/internal/http-server/handlers/weeks/get"
	"weekgrid-service/internal/lock"
	"weekgrid-service/internal/refresher"
	svc "weekgrid-service/internal/service"
	"weekgrid-service/internal/storage/postgres"
	"weekgrid-service/internal/storage/sqlite"
	slogpretty "weekgrid-service/pkg/handlers/slogPretty"
	"weekgrid-service/pkg/middleware/mwLogger"
	"weekgrid-service/pkg/sl"
)

const (
	envLocal = "local"
	envDev   = "dev"

	startupTimeout = 15 * time.Second
)

type store interface {
	svc.Store
	io.Closer
}

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	startCtx, cancelStart := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStart()

	storage, err := openStorage(startCtx, cfg.Storage)
	if err != nil {
		log.Error("Failed to init storage", slog.String("driver", cfg.Storage.Driver), sl.Err(err))
		os.Exit(1)
	}

	var locker lock.Locker = lock.Nop{}
	var redisLock *lock.RedisLock
	if cfg.Redis.Address != "" {
		redisLock, err = lock.NewRedisLock(cfg.Redis.Address)
		if err != nil {
			log.Error("Failed to init redis lock", sl.Err(err))
			os.Exit(1)
		}
		locker = redisLock
	} else {
		log.Warn("No redis address configured, slot locks are process-local no-ops")
	}

	service := svc.NewService(log, storage, locker, svc.Calendar{
		Roster:              cfg.Calendar.People(),
		Grid:                cfg.Calendar.Grid(),
		SlotDuration:        cfg.Calendar.SlotDuration(),
		Location:            cfg.Calendar.Location(),
		DefaultHorizonWeeks: cfg.Calendar.DefaultHorizonWeeks,
	})

	if _, err := service.Refresh(startCtx); err != nil {
		// Readers retry lazily through Snapshot.
		log.Warn("Initial snapshot load failed", sl.Err(err))
	}

	var sched *refresher.Refresher
	if cfg.Refresh.Cron != "" {
		sched, err = refresher.New(log, service, cfg.Refresh.Cron)
		if err != nil {
			log.Error("Failed to init snapshot refresher", sl.Err(err))
			os.Exit(1)
		}
		sched.Start()
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(chimw.URLFormat)
	router.Use(CORS)

	// Calendar shape
	router.Get("/roster", rosterGet.New(log, service))
	router.Get("/weeks/current", weekGet.New(log, service))
	router.Get("/weeks/{week}", weekGet.New(log, service))

	// Views
	router.Get("/weeks/{week}/availability", availabilityGet.New(log, service))
	router.Get("/weeks/{week}/people/{person}", peopleGet.New(log, service))
	router.Get("/people/{person}/calendar", calendarExport.New(log, service))

	// Writes
	router.Post("/slots/toggle", slotToggle.New(log, service))
	router.Put("/slots", slotSet.New(log, service))
	router.Post("/recurrences", recurrenceCreate.New(log, service))
	router.Post("/snapshot/refresh", snapshotRefresh.New(log, service))

	serv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.HTTPServer.Address))
		if err := serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if sched != nil {
		if err := sched.Stop(ctx); err != nil {
			log.Error("Failed to stop snapshot refresher", sl.Err(err))
		} else {
			log.Info("Snapshot refresher stopped")
		}
	}

	if err := storage.Close(); err != nil {
		log.Error("Failed to close storage", sl.Err(err))
	} else {
		log.Info("Storage closed")
	}

	if redisLock != nil {
		if err := redisLock.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func openStorage(ctx context.Context, cfg config.Storage) (store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverSQLite:
		s, err := sqlite.New(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default: // prod
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
