package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"legaldocs/internal/audit"
	"legaldocs/internal/compliance"
	"legaldocs/internal/document/handler"
	"legaldocs/internal/document/metrics"
	"legaldocs/internal/document/service"
	doctypestore "legaldocs/internal/document/store/doctype"
	documentstore "legaldocs/internal/document/store/document"
	"legaldocs/internal/filestore"
	"legaldocs/internal/notify"
	"legaldocs/internal/owner"
	"legaldocs/internal/ownerkind"
	"legaldocs/internal/platform/config"
	"legaldocs/internal/platform/httpserver"
	"legaldocs/internal/platform/logger"
	platformredis "legaldocs/internal/platform/redis"
	"legaldocs/internal/reminder"
	"legaldocs/pkg/platform/middleware/requesttime"
	"legaldocs/pkg/platform/tx"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	registry, err := buildRegistry(cfg)
	if err != nil {
		log.Error("owner kind registry", "error", err)
		os.Exit(1)
	}

	// Stores: postgres when configured, in-memory otherwise.
	var (
		documents documentStore
		types     service.TypeStore
		states    compliance.StateStore
		auditLog  audit.Store
		runner    tx.Runner = tx.NoopRunner{}
	)
	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		documents = documentstore.NewPostgres(db)
		types = doctypestore.NewPostgres(db)
		states = owner.NewPostgresStateStore(db)
		auditLog = audit.NewPostgresStore(db)
		runner = tx.SQLRunner{DB: db}
	} else {
		log.Warn("POSTGRES_URL not set, using in-memory stores")
		documents = documentstore.NewMemory()
		types = doctypestore.NewMemory()
		states = owner.NewMemoryStateStore()
		auditLog = audit.NewMemoryStore()
	}

	// Optional infrastructure.
	var auditSinks []audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka audit sink", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		auditSinks = append(auditSinks, kafka)
	}
	auditor := audit.NewPublisher(auditLog, log, auditSinks...)

	var locker reminder.Locker = reminder.NewLocalLocker()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		locker = reminder.NewRedisLocker(redisClient)
	}

	var files service.FileStore = filestore.NewMemory()
	if cfg.S3Bucket != "" {
		s3, err := filestore.NewS3(ctx, cfg.S3Bucket)
		if err != nil {
			log.Error("s3 file store", "error", err)
			os.Exit(1)
		}
		files = s3
	}

	directory := owner.NewInMemoryDirectory()
	dispatcher := notify.LogDispatcher{Logger: log}
	docMetrics := metrics.New()

	aggregator := compliance.NewAggregator(
		documents, types, states, registry,
		auditor, docMetrics, log, cfg.DefaultNoneWhenEmpty,
	)
	svc := service.NewService(
		documents, types, aggregator, files,
		dispatcher, directory, registry, auditor, docMetrics, runner, log,
		service.Config{
			AllowedExtensions:  cfg.AllowedExtensions,
			ThresholdDays:      cfg.ReminderDays,
			ValidationWorkflow: cfg.ValidationWorkflow,
		},
	)
	scheduler := reminder.NewScheduler(
		documents, types, directory, dispatcher, locker, registry,
		auditor, reminder.NewMetrics(), log,
		reminder.Config{
			Enabled:       cfg.RemindersEnabled,
			ThresholdDays: cfg.ReminderDays,
			Concurrency:   cfg.SweepConcurrency,
		},
	)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(requesttime.Middleware)
	handler.New(svc, log, handler.Config{
		ThresholdDays:      cfg.ReminderDays,
		ValidationWorkflow: cfg.ValidationWorkflow,
	}).Register(router)
	reminder.NewHandler(scheduler, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting legaldocs", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

func buildRegistry(cfg config.Config) (*ownerkind.Registry, error) {
	kinds := make([]ownerkind.Kind, 0, len(cfg.OwnerKinds))
	for _, name := range cfg.OwnerKinds {
		kinds = append(kinds, ownerkind.Kind{Name: name})
	}
	return ownerkind.NewRegistry(kinds...)
}

// documentStore is the union of the document store interfaces the service,
// aggregator and reminder sweep consume. Both the postgres and the in-memory
// implementations satisfy it.
type documentStore interface {
	service.DocumentStore
	reminder.DocumentStore
}
