package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/lifecal/lifecal-api/api/swagger"
	"github.com/lifecal/lifecal-api/internal/ai"
	"github.com/lifecal/lifecal-api/internal/handler"
	"github.com/lifecal/lifecal-api/internal/middleware"
	"github.com/lifecal/lifecal-api/internal/notifier"
	"github.com/lifecal/lifecal-api/internal/repository"
	"github.com/lifecal/lifecal-api/internal/service"
	"github.com/lifecal/lifecal-api/pkg/cache"
	"github.com/lifecal/lifecal-api/pkg/config"
	"github.com/lifecal/lifecal-api/pkg/database"
	"github.com/lifecal/lifecal-api/pkg/jobs"
	"github.com/lifecal/lifecal-api/pkg/logger"
	corsmiddleware "github.com/lifecal/lifecal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lifecal/lifecal-api/pkg/middleware/requestid"
)

// @title LifeCal API
// @version 1.0.0
// @description Personal calendar with batch text entry, live updates and a life timeline
// @BasePath /api
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)

	var eventCache service.EventCache
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close()
		eventCache = cacheRepo
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := notifier.NewHub(cfg.Notifier.SubscriberBuffer, logr)
	broadcaster := notifier.NewBroadcaster(hub, eventRepo, jobs.QueueConfig{
		Workers: cfg.Notifier.Workers,
	}, logr)
	broadcaster.SetMetrics(metricsSvc)
	broadcaster.Start(ctx)
	defer broadcaster.Stop()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "lifecal-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	lifeSvc := service.NewLifeService(userSvc, cfg.Life.DefaultLifespanYears, logr)
	eventSvc := service.NewEventService(eventRepo, eventCache, cfg.Cache.TTL, broadcaster, metricsSvc, validate, logr)

	var assistantSvc *service.AssistantService
	if cfg.AI.Enabled {
		client := ai.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout)
		assistantSvc = service.NewAssistantService(client, logr)
	} else {
		assistantSvc = service.NewAssistantService(nil, logr)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	eventHandler := handler.NewEventHandler(eventSvc, hub)
	lifeHandler := handler.NewLifeHandler(lifeSvc)
	assistantHandler := handler.NewAssistantHandler(assistantSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
			auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		}

		protected := api.Group("", middleware.JWT(authSvc))
		{
			protected.GET("/me", userHandler.Me)
			protected.PATCH("/me", userHandler.UpdateMe)

			protected.GET("/events", eventHandler.List)
			protected.POST("/events", eventHandler.Create)
			protected.POST("/events/batch", eventHandler.CreateBatch)
			protected.GET("/events/export", eventHandler.Export)
			protected.GET("/events/stream", eventHandler.Stream)
			protected.GET("/events/:id", eventHandler.Get)
			protected.PATCH("/events/:id", eventHandler.Update)
			protected.DELETE("/events/:id", eventHandler.Delete)

			protected.GET("/life/timeline", lifeHandler.Timeline)

			protected.POST("/assistant/suggest", assistantHandler.Suggest)
			protected.POST("/assistant/analyze-event", assistantHandler.AnalyzeEvent)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
