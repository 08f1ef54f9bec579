package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Logan1xl/suivie-academique/api/swagger"
	"github.com/Logan1xl/suivie-academique/internal/handler"
	"github.com/Logan1xl/suivie-academique/internal/middleware"
	"github.com/Logan1xl/suivie-academique/internal/repository"
	"github.com/Logan1xl/suivie-academique/internal/service"
	"github.com/Logan1xl/suivie-academique/migrations"
	"github.com/Logan1xl/suivie-academique/pkg/cache"
	"github.com/Logan1xl/suivie-academique/pkg/config"
	"github.com/Logan1xl/suivie-academique/pkg/database"
	"github.com/Logan1xl/suivie-academique/pkg/export"
	"github.com/Logan1xl/suivie-academique/pkg/logger"
	corsmiddleware "github.com/Logan1xl/suivie-academique/pkg/middleware/cors"
	reqidmiddleware "github.com/Logan1xl/suivie-academique/pkg/middleware/requestid"
)

// @title Suivie Academique API
// @version 1.0.0
// @description Academic tracking backend: staff, courses, rooms and course session scheduling
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if err := migrations.Up(db.DB); err != nil {
		logr.Sugar().Fatalw("failed to apply migrations", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	staffRepo := repository.NewStaffRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	programmationRepo := repository.NewProgrammationRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, query cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, true)
		}
	}

	auditSvc := service.NewAuditService(staffRepo, cfg.Audit, logr)
	auditSvc.Start(ctx)
	defer auditSvc.Stop()

	codes := service.NewCodeGenerator(staffRepo)
	staffSvc := service.NewStaffService(staffRepo, codes, auditSvc, nil, logr)
	authSvc := service.NewAuthService(staffRepo, auditSvc, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	courseSvc := service.NewCourseService(courseRepo, auditSvc, nil, logr)
	roomSvc := service.NewRoomService(roomRepo, auditSvc, nil, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, staffRepo, courseRepo, auditSvc, nil, logr)
	programmationSvc := service.NewProgrammationService(programmationRepo, roomRepo, courseRepo, staffRepo, cacheSvc, metricsSvc, auditSvc, nil, logr)
	exportSvc := service.NewExportService(programmationSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	handlers := handler.Handlers{
		Auth:           handler.NewAuthHandler(authSvc, staffSvc),
		Staff:          handler.NewStaffHandler(staffSvc, assignmentSvc),
		Courses:        handler.NewCourseHandler(courseSvc, assignmentSvc),
		Rooms:          handler.NewRoomHandler(roomSvc, programmationSvc),
		Assignments:    handler.NewAssignmentHandler(assignmentSvc),
		Programmations: handler.NewProgrammationHandler(programmationSvc, exportSvc),
		Metrics:        handler.NewMetricsHandler(metricsSvc),
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authSvc)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
