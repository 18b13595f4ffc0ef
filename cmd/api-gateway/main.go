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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/homeschool-planner-api/api/swagger"
	"github.com/noah-isme/homeschool-planner-api/internal/handler"
	"github.com/noah-isme/homeschool-planner-api/internal/middleware"
	"github.com/noah-isme/homeschool-planner-api/internal/planner"
	"github.com/noah-isme/homeschool-planner-api/internal/repository"
	"github.com/noah-isme/homeschool-planner-api/internal/service"
	"github.com/noah-isme/homeschool-planner-api/pkg/cache"
	"github.com/noah-isme/homeschool-planner-api/pkg/config"
	"github.com/noah-isme/homeschool-planner-api/pkg/database"
	"github.com/noah-isme/homeschool-planner-api/pkg/export"
	"github.com/noah-isme/homeschool-planner-api/pkg/jobs"
	"github.com/noah-isme/homeschool-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/homeschool-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/homeschool-planner-api/pkg/middleware/requestid"
)

// @title Homeschool Planner API
// @version 1.0.0
// @description Weekly schedule and block assignment engine for homeschool term plans.
// @BasePath /api/v1
// @schemes http https
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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, drafts disabled", zap.Error(err))
		redisClient = nil
	}

	catalog := planner.DefaultCatalog()
	if cfg.Planner.CatalogFile != "" {
		if catalog, err = planner.LoadCatalog(cfg.Planner.CatalogFile); err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
	}

	location, err := time.LoadLocation(cfg.Planner.Timezone)
	if err != nil {
		return fmt.Errorf("planner timezone %q: %w", cfg.Planner.Timezone, err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	termRepo := repository.NewTermPlanRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	planRepo := repository.NewStudentPlanRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	drafts := service.NewDraftCache(cacheRepo, metrics, cfg.Planner.DraftTTL, logr, cfg.Planner.DraftsCached && redisClient != nil)
	debouncer := jobs.NewDebouncer(cfg.Autosave.Delay, logr)

	plannerSvc := service.NewPlannerService(planRepo, termRepo, studentRepo, drafts, debouncer, catalog, metrics, logr, service.PlannerConfig{
		SessionTTL: cfg.Planner.SessionTTL,
	})
	saveQueue := jobs.NewQueue("plan-autosave", plannerSvc.HandleSaveJob, jobs.QueueConfig{
		Workers:      cfg.Autosave.Workers,
		BufferSize:   cfg.Autosave.BufferSize,
		DisableRetry: true,
		Logger:       logr,
	})
	saveQueue.Start(context.Background())
	plannerSvc.SetSaveQueue(saveQueue)

	scheduler := jobs.NewScheduler(logr)
	if err := scheduler.Every(cfg.Planner.SweepSpec, "planner-session-sweep", func(ctx context.Context) {
		plannerSvc.SweepIdle(ctx)
	}); err != nil {
		return err
	}
	scheduler.Start()

	exportSvc := service.NewExportService(plannerSvc, termRepo, studentRepo,
		export.NewCSVExporter(), export.NewPDFExporter(), export.NewXLSXExporter(), export.NewICSExporter(),
		logr, service.ExportConfig{Location: location})
	authSvc := service.NewAuthService(service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Audience: cfg.JWT.Audience}, logr)

	var cachePinger handler.Pinger
	if redisClient != nil {
		cachePinger = cacheRepo
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	registerRoutes(r, cfg, routeDeps{
		auth:     authSvc,
		metrics:  handler.NewMetricsHandler(metrics, db, cachePinger),
		terms:    handler.NewTermPlanHandler(service.NewTermPlanService(termRepo, validate, logr)),
		students: handler.NewStudentHandler(service.NewStudentService(studentRepo, validate, logr)),
		planner:  handler.NewPlannerHandler(plannerSvc, exportSvc, validate),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "db_driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("http shutdown failed", zap.Error(err))
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logr.Warn("sweeper did not stop in time", zap.Error(err))
	}
	debouncer.Stop()
	saveQueue.Stop()
	if err := plannerSvc.FlushAll(shutdownCtx); err != nil {
		logr.Error("unsaved student plans at shutdown", zap.Error(err))
	}
	return nil
}

type routeDeps struct {
	auth     *service.AuthService
	metrics  *handler.MetricsHandler
	terms    *handler.TermPlanHandler
	students *handler.StudentHandler
	planner  *handler.PlannerHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, d routeDeps) {
	r.GET("/health", d.metrics.Health)
	r.GET("/ready", d.metrics.Ready)
	r.GET("/metrics", d.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/planner/catalog", d.planner.Catalog)
	api.GET("/planner/calculate", d.planner.Calculate)

	secured := api.Group("")
	secured.Use(middleware.JWT(d.auth))

	secured.GET("/students", d.students.List)
	secured.POST("/students", d.students.Create)

	secured.GET("/plans", d.terms.List)
	secured.POST("/plans", d.terms.Create)
	secured.GET("/plans/:planId", d.terms.Get)
	secured.GET("/plans/:planId/students", d.planner.ListStudentPlans)
	secured.POST("/plans/:planId/blocks/propagate", d.planner.PropagateBlock)

	student := secured.Group("/plans/:planId/students/:studentId")
	student.PUT("/curriculum", d.planner.SetCurriculum)
	student.POST("/copy", d.planner.CopySchedule)
	student.GET("/summary", d.planner.Summary)

	schedule := student.Group("/schedule")
	schedule.GET("", d.planner.GetSchedule)
	schedule.POST("/save", d.planner.Save)
	schedule.GET("/export", d.planner.Export)
	schedule.POST("/same-schedule/toggle", d.planner.ToggleSameSchedule)
	schedule.PATCH("/days/:day", d.planner.SetDayField)
	schedule.POST("/days/:day/toggle", d.planner.ToggleDay)
	schedule.GET("/days/:day/slots", d.planner.DaySlots)
	schedule.POST("/days/:day/copy", d.planner.CopyDay)
	schedule.PATCH("/days/:day/blocks", d.planner.SetBlockField)
	schedule.POST("/days/:day/blocks", d.planner.AddBlock)
	schedule.DELETE("/days/:day/blocks/last", d.planner.RemoveBlock)
	schedule.PUT("/days/:day/blocks/platform", d.planner.SetPlatformURL)
	schedule.PUT("/days/:day/blocks/platform-help", d.planner.SetPlatformHelp)
}
