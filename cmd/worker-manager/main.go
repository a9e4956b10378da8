// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/api"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/camunda"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/config"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/database"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/observability"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/bulk"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/listing"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/matching"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/sideeffects"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/workflow"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/notify"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store/memory"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store/postgres"
	"github.com/hazlijohar95/creatorschapter-sub000/pkg/registry"

	// Application Workers (7)
	bta "github.com/hazlijohar95/creatorschapter-sub000/internal/workers/application/bulk-transition-applications"
	car "github.com/hazlijohar95/creatorschapter-sub000/internal/workers/application/create-application-record"
	dse "github.com/hazlijohar95/creatorschapter-sub000/internal/workers/application/dispatch-side-effects"
	ra "github.com/hazlijohar95/creatorschapter-sub000/internal/workers/application/rescore-application"
	sn "github.com/hazlijohar95/creatorschapter-sub000/internal/workers/application/send-notification"
	ta "github.com/hazlijohar95/creatorschapter-sub000/internal/workers/application/transition-application"
	vad "github.com/hazlijohar95/creatorschapter-sub000/internal/workers/application/validate-application-data"

	// Matching & Listing Workers (3)
	cms "github.com/hazlijohar95/creatorschapter-sub000/internal/workers/matching/calculate-match-score"
	plf "github.com/hazlijohar95/creatorschapter-sub000/internal/workers/listing/parse-listing-filters"
	rl "github.com/hazlijohar95/creatorschapter-sub000/internal/workers/listing/rank-listing"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("storeDriver", cfg.Database.Driver),
	)

	var recorder observability.Recorder
	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel metrics disabled", zap.Error(err))
	} else {
		recorder = obs
	}

	ctx := context.Background()
	var readiness []func(context.Context) error

	// --- Store ---
	var (
		st store.Store
		pg *database.PostgresClient
	)
	switch cfg.Database.Driver {
	case config.DriverMemory:
		st = memory.New()
		zapLog.Warn("using in-memory store; data is lost on restart")
	default:
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		if cfg.Database.Postgres.AutoMigrate {
			if err := postgres.Migrate(pg.DB); err != nil {
				zapLog.Fatal("schema migration failed", zap.Error(err))
			}
			zapLog.Info("schema migrations applied")
		}
		st = postgres.New(pg.DB, log)
		readiness = append(readiness, pg.Ping)
	}

	// --- Profile cache ---
	var rdb *redis.Client
	if cfg.Database.Redis.Address != "" {
		var rc *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("profile cache disabled", zap.Error(err))
		} else {
			defer rc.Close()
			rdb = rc.Client
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Notifications ---
	transport, closeTransport, err := notify.New(ctx, cfg.Notifications, log)
	if err != nil {
		zapLog.Fatal("notification transport failed", zap.Error(err), zap.String("transport", cfg.Notifications.Transport))
	}
	notifier := notify.NewAsync(transport, notify.DefaultQueueSize, log)

	// --- Engine ---
	persistTimeout := config.GetDuration(cfg.Engine.PersistenceTimeout)
	dispatcher := sideeffects.NewDispatcher(st, cfg.Engine.ConversationMaxAttempts, log)
	matcher := matching.NewMatcher(st, rdb, time.Duration(cfg.Engine.ProfileCacheTTL)*time.Second, log)
	svc := workflow.NewService(st, log,
		workflow.WithProfiles(matcher),
		workflow.WithDispatcher(dispatcher),
		workflow.WithNotifier(notifier),
		workflow.WithTimeout(persistTimeout),
	)
	lister := listing.NewService(st, matcher, log)
	coordinator := bulk.NewCoordinator(svc, cfg.Engine.BulkMaxConcurrency, persistTimeout, log)

	// --- Zeebe Workers ---
	var (
		zeebe   *camunda.Client
		workers []worker.JobWorker
	)
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(camunda.ConfigFrom(cfg.Camunda))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")

		client := zeebe.GetClient()
		start := func(taskType string, handle func(worker.JobClient, entities.Job)) {
			if !config.IsWorkerEnabled(cfg, taskType) {
				zapLog.Info("worker disabled", zap.String("taskType", taskType))
				return
			}
			if w := startWorker(client, taskType, config.GetWorkerConfig(cfg, taskType), handle, zapLog); w != nil {
				workers = append(workers, w)
			}
		}

		wc := func(taskType string) config.WorkerConfig { return config.GetWorkerConfig(cfg, taskType) }

		start(ta.TaskType, ta.NewHandler(ta.LoadConfig(wc(ta.TaskType)), svc, recorder, log).Handle)
		start(bta.TaskType, bta.NewHandler(bta.LoadConfig(wc(bta.TaskType)), coordinator, recorder, log).Handle)
		start(car.TaskType, car.NewHandler(car.LoadConfig(wc(car.TaskType)), svc, recorder, log).Handle)
		start(vad.TaskType, vad.NewHandler(vad.LoadConfig(wc(vad.TaskType)), recorder, log).Handle)
		start(dse.TaskType, dse.NewHandler(dse.LoadConfig(wc(dse.TaskType), cfg.Engine), dispatcher, recorder, log).Handle)
		start(ra.TaskType, ra.NewHandler(ra.LoadConfig(wc(ra.TaskType)), svc, recorder, log).Handle)
		start(sn.TaskType, sn.NewHandler(sn.LoadConfig(wc(sn.TaskType), cfg.Notifications), st, transport, recorder, log).Handle)
		start(cms.TaskType, cms.NewHandler(cms.LoadConfig(wc(cms.TaskType)), matcher, recorder, log).Handle)
		start(plf.TaskType, plf.NewHandler(plf.LoadConfig(wc(plf.TaskType), cfg.Engine), recorder, log).Handle)
		start(rl.TaskType, rl.NewHandler(rl.LoadConfig(wc(rl.TaskType), cfg.Engine), lister, recorder, log).Handle)

		zapLog.Info("workers registered", zap.Int("count", len(workers)))
		checkRegistry(cfg.App.RegistryPath, []string{
			ta.TaskType, bta.TaskType, car.TaskType, vad.TaskType, dse.TaskType,
			ra.TaskType, sn.TaskType, cms.TaskType, plf.TaskType, rl.TaskType,
		}, zapLog)
		readiness = append(readiness, zeebe.HealthCheck)
	} else {
		zapLog.Info("camunda disabled; serving HTTP only")
	}

	// --- HTTP: API, Health & Metrics ---
	srv := &http.Server{
		Addr: cfg.HTTP.Address,
		Handler: api.NewRouter(api.Dependencies{
			Workflow:    svc,
			Bulk:        coordinator,
			Matcher:     matcher,
			Lister:      lister,
			MaxPageSize: cfg.Engine.ListingMaxPageSize,
			Ready: func(ctx context.Context) error {
				for _, check := range readiness {
					if err := check(ctx); err != nil {
						return err
					}
				}
				return nil
			},
		}, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}
	if err := notifier.Close(shutdownCtx); err != nil {
		zapLog.Warn("notification queue not drained", zap.Error(err))
	}
	if err := closeTransport(); err != nil {
		zapLog.Warn("Error closing notification transport", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("Error stopping metrics provider", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// checkRegistry warns about served task types missing from the activity
// registry. A missing or invalid registry is not fatal.
func checkRegistry(path string, taskTypes []string, log *zap.Logger) {
	if path == "" {
		return
	}
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		log.Warn("activity registry not loaded", zap.String("path", path), zap.Error(err))
		return
	}
	if err := reg.Validate(); err != nil {
		log.Warn("activity registry is invalid", zap.String("path", path), zap.Error(err))
	}
	if missing := reg.Unregistered(taskTypes); len(missing) > 0 {
		log.Warn("task types missing from activity registry", zap.Strings("taskTypes", missing))
	}
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) worker.JobWorker {
	w := client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
	return w
}
