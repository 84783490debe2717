package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assetfolio/src/api"
	api_handlers "assetfolio/src/api/handlers"
	"assetfolio/src/config"
	"assetfolio/src/database"
	"assetfolio/src/scheduler"
	"assetfolio/src/services"
	"assetfolio/src/utils"
	redis_utils "assetfolio/src/utils/redis"
	"assetfolio/src/worker"
	worker_handlers "assetfolio/src/worker/handlers"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig("./settings", config.Env())
	if err != nil {
		log.Println(err, "Error while loading config")
		os.Exit(1)
	}
	logger, err := utils.NewLogger(utils.ParseLevel(cfg.Logging.Level), cfg.Logging.ToFile, cfg.Logging.FilePath)
	if err != nil {
		log.Println(err, "Error while creating logger")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Error while running")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	store, err := database.NewStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var httpServer *http.Server
	if cfg.Service.Type == config.API {
		cache, closeCache, err := reportCache(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeCache()

		h := api_handlers.NewHandler(
			services.NewHoldingService(store, cache),
			services.NewAllocationService(store, cache),
			services.NewPortfolioService(store, cache),
			services.NewReportService(store, cache, cfg.Reports.CacheTTL),
			services.NewHistoryService(store, cache),
			cfg.Service.RequestTimeout,
		)
		httpServer = api.NewHTTPServer(cfg.Service, api.NewServer(h, logger, cfg.Service.CORSOrigins))
	} else {
		history := services.NewHistoryService(store, nil)
		task, err := scheduler.NewScheduledTask("history-snapshot", cfg.Scheduler.HistorySnapshotCron, time.Minute, logger,
			func(ctx context.Context) error {
				_, err := history.SnapshotPrices(utils.WithLogger(ctx, logger.WithField("task", "history-snapshot")))
				return err
			})
		if err != nil {
			return err
		}
		defer task.Cancel()
		logger.WithField("next_run", task.Next()).Info("History snapshot scheduled")

		server := worker.NewServer(worker_handlers.NewHandler(history, time.Minute), logger)
		httpServer = worker.NewHTTPServer(cfg.Service, server)
	}

	return serve(ctx, httpServer, logger)
}

// serve runs httpServer until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, httpServer *http.Server, logger *logrus.Logger) error {
	errC := make(chan error, 1)
	go func() {
		logger.WithField("addr", httpServer.Addr).Info("Starting server")

		// "ListenAndServe always returns a non-nil error. After Shutdown or Close, the returned error is
		// ErrServerClosed."
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
		close(errC)
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errC
}

// reportCache picks Redis when it is enabled and an in-process cache otherwise.
func reportCache(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (services.ReportCache, func(), error) {
	if !cfg.Databases.Redis.Enabled {
		return services.NewMemoryReportCache(), func() {}, nil
	}
	handler, err := redis_utils.NewRedisHandler(ctx, cfg.Databases.Redis)
	if err != nil {
		return nil, nil, err
	}
	logger.WithField("host", cfg.Databases.Redis.Host).Info("Caching reports in Redis")
	return services.NewRedisReportCache(handler), func() { _ = handler.Close() }, nil
}
