package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/class-scheduler-api/api/swagger"
	"github.com/noah-isme/class-scheduler-api/internal/handler"
	"github.com/noah-isme/class-scheduler-api/internal/repository"
	"github.com/noah-isme/class-scheduler-api/internal/scheduler"
	"github.com/noah-isme/class-scheduler-api/internal/service"
	"github.com/noah-isme/class-scheduler-api/pkg/cache"
	"github.com/noah-isme/class-scheduler-api/pkg/config"
	"github.com/noah-isme/class-scheduler-api/pkg/database"
	"github.com/noah-isme/class-scheduler-api/pkg/events"
	"github.com/noah-isme/class-scheduler-api/pkg/jobs"
	"github.com/noah-isme/class-scheduler-api/pkg/logger"
)

// @title Class Scheduler API
// @version 1.0.0
// @description Class section management, conflict detection and schedule generation.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		}
	}
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		defer redisClient.Close()
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		publisher = events.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Queue, logr)
	}
	dispatcher := events.NewDispatcher(publisher, jobs.QueueConfig{
		Workers:    cfg.Events.Workers,
		MaxRetries: cfg.Events.Retries,
		RetryDelay: time.Second,
		Logger:     logr,
	})
	appCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	dispatcher.Start(appCtx)

	metricsSvc.RegisterQueueDepth("events", dispatcher.Pending)

	catalog := scheduler.DefaultCatalog()
	if rooms := append(append([]string{}, cfg.Scheduler.TheoryRooms...), cfg.Scheduler.LabRooms...); len(rooms) > 0 {
		var filled []scheduler.RoomKind
		catalog, filled = scheduler.NewCatalog(rooms...).WithFallback(scheduler.DefaultCatalog())
		for _, kind := range filled {
			logr.Warn("no rooms configured for universe, using built-in rooms", zap.String("kind", string(kind)))
		}
	}

	validate := validator.New()
	classRepo := repository.NewClassSectionRepository(db)
	classSvc := service.NewClassService(classRepo, db, cacheSvc, metricsSvc, dispatcher, validate, logr, service.ClassServiceConfig{
		Catalog:         catalog,
		DefaultCapacity: cfg.Scheduler.SectionCapacity,
	})
	generatorSvc := service.NewScheduleGeneratorService(
		classSvc,
		service.NewProposalStore(cacheSvc, cfg.Scheduler.ProposalTTL),
		metricsSvc,
		dispatcher,
		validate,
		logr,
		service.ScheduleGeneratorConfig{
			ProposalTTL:     cfg.Scheduler.ProposalTTL,
			Catalog:         catalog,
			MaxInstructors:  cfg.Scheduler.MaxInstructors,
			SectionCapacity: cfg.Scheduler.SectionCapacity,
		},
	)
	exportSvc := service.NewExportService(classSvc, generatorSvc, service.ExportConfig{
		TermStart: cfg.Export.TermStart,
		Timezone:  cfg.Export.Timezone,
		Weeks:     cfg.Export.Weeks,
	}, logr)

	readiness := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		readiness["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	engine := newRouter(cfg, logr, routeDeps{
		metrics:   metricsSvc,
		verifier:  service.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer),
		classes:   handler.NewClassHandler(classSvc, exportSvc),
		generator: handler.NewScheduleGeneratorHandler(generatorSvc, exportSvc),
		slots:     handler.NewSlotHandler(),
		ops:       handler.NewMetricsHandler(metricsSvc, readiness),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logr.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	dispatcher.Stop()
}
