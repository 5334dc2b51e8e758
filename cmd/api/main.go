package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/coe-platform/coe-api/api/swagger"
	"github.com/coe-platform/coe-api/internal/handler"
	"github.com/coe-platform/coe-api/internal/middleware"
	"github.com/coe-platform/coe-api/internal/models"
	"github.com/coe-platform/coe-api/internal/repository"
	"github.com/coe-platform/coe-api/internal/service"
	"github.com/coe-platform/coe-api/pkg/cache"
	"github.com/coe-platform/coe-api/pkg/config"
	"github.com/coe-platform/coe-api/pkg/database"
	"github.com/coe-platform/coe-api/pkg/export"
	"github.com/coe-platform/coe-api/pkg/jobs"
	"github.com/coe-platform/coe-api/pkg/logger"
	corsmiddleware "github.com/coe-platform/coe-api/pkg/middleware/cors"
	reqidmiddleware "github.com/coe-platform/coe-api/pkg/middleware/requestid"
	"github.com/coe-platform/coe-api/pkg/storage"
)

// @title Center of Excellence API
// @version 1.0.0
// @description Events, registrations, blogs and newsletter backend
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	uploads, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	exports, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Events.CacheTTL, logr, cfg.Redis.Enabled)

	eventRepo := repository.NewEventRepository(db)
	userRepo := repository.NewUserRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	intentRepo := repository.NewIntentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	blogRepo := repository.NewBlogRepository(db)
	newsletterRepo := repository.NewNewsletterRepository(db)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, nil, logr)
	eventSvc := service.NewEventService(eventRepo, notificationRepo, intentRepo, cacheSvc, cfg.Events.CacheTTL, nil, logr)
	registrationSvc := service.NewRegistrationService(eventRepo, userRepo, registrationRepo, intentRepo, uploads, cacheSvc, nil, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, eventRepo, uploads, nil, logr)
	blogSvc := service.NewBlogService(blogRepo, nil, logr)
	newsletterSvc := service.NewNewsletterService(newsletterRepo, nil, logr)
	exportSvc := service.NewExportService(eventRepo, registrationRepo, userRepo, exports, signer,
		service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.SignedURLTTL},
		logr, export.NewCSVExporter(), export.NewPDFExporter())

	sweep := jobs.NewQueue("intent-sweep", func(ctx context.Context, job jobs.Job) error {
		replayed, err := registrationSvc.ReplayPendingIntents(ctx, cfg.Intents.PendingAge)
		if err != nil {
			return err
		}
		if replayed > 0 {
			logr.Sugar().Infow("replayed pending registration intents", "count", replayed)
		}
		return nil
	}, jobs.QueueConfig{
		Workers:    cfg.Intents.WorkerConcurrency,
		MaxRetries: cfg.Intents.WorkerRetries,
		Logger:     logr,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweep.Start(ctx)
	defer sweep.Stop()

	go func() {
		ticker := time.NewTicker(cfg.Intents.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-ticker.C:
				_ = sweep.Enqueue(jobs.Job{Type: "sweep", Enqueued: tick})
			}
		}
	}()

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	eventHandler := handler.NewEventHandler(eventSvc, registrationSvc, exportSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	blogHandler := handler.NewBlogHandler(blogSvc)
	newsletterHandler := handler.NewNewsletterHandler(newsletterSvc)
	filesHandler := handler.NewFilesHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", userHandler.Create)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	users := api.Group("/users")
	users.POST("", userHandler.Create)
	users.GET("/:id", middleware.JWT(authSvc), middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Get)
	users.GET("/name/:username", middleware.JWT(authSvc), userHandler.GetByUsername)
	users.PATCH("/:id", middleware.JWT(authSvc), middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Update)
	users.DELETE("/:id", middleware.JWT(authSvc), middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Delete)

	events := api.Group("/events")
	events.GET("", eventHandler.List)
	events.GET("/:id", eventHandler.Get)
	events.GET("/name/:name", eventHandler.GetByName)
	events.GET("/:id/participants", eventHandler.Participants)
	events.GET("/:id/notifications", notificationHandler.List)
	events.POST("/:id/register", middleware.OptionalJWT(authSvc), eventHandler.Register)

	adminEvents := events.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	adminEvents.POST("", eventHandler.Create)
	adminEvents.PATCH("/:id", eventHandler.Update)
	adminEvents.DELETE("/:id", eventHandler.Cancel)
	adminEvents.PATCH("/:id/extend_deadline", eventHandler.ExtendDeadline)
	adminEvents.GET("/:id/participants/export", eventHandler.ExportParticipants)
	adminEvents.POST("/:id/notifications", notificationHandler.Append)
	adminEvents.POST("/:id/notifications/poster", notificationHandler.AppendPoster)

	registrations := api.Group("/event_registrations", middleware.JWT(authSvc))
	registrations.POST("", registrationHandler.Create)
	registrations.GET("/event/:event_id", middleware.RequireRoles(models.RoleAdmin), registrationHandler.ListByEvent)
	registrations.GET("/:event_id/:user_id", middleware.RBAC(string(models.RoleAdmin), "SELF"), registrationHandler.Get)
	registrations.PATCH("/:event_id/:user_id", middleware.RBAC(string(models.RoleAdmin), "SELF"), registrationHandler.UpdateAnswers)
	registrations.DELETE("/:event_id/:user_id", middleware.RBAC(string(models.RoleAdmin), "SELF"), registrationHandler.Delete)

	blogs := api.Group("/blogs")
	blogs.GET("", blogHandler.List)
	blogs.GET("/:id", blogHandler.Get)
	blogs.POST("", middleware.JWT(authSvc), blogHandler.Create)
	blogs.PUT("/:id", middleware.JWT(authSvc), blogHandler.Update)
	blogs.PATCH("/:id/status", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), blogHandler.Moderate)
	blogs.DELETE("/:id", middleware.JWT(authSvc), blogHandler.Delete)

	newsletter := api.Group("/newsletter")
	newsletter.POST("/subscribe", newsletterHandler.Subscribe)
	newsletter.GET("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), newsletterHandler.List)
	newsletter.DELETE("/:email", newsletterHandler.Unsubscribe)

	api.GET("/files/:token", filesHandler.Download)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
