package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/zarchive/ticket-gateway/api/swagger"
	"github.com/zarchive/ticket-gateway/internal/handler"
	internalmiddleware "github.com/zarchive/ticket-gateway/internal/middleware"
	"github.com/zarchive/ticket-gateway/internal/models"
	"github.com/zarchive/ticket-gateway/internal/repository"
	"github.com/zarchive/ticket-gateway/internal/service"
	"github.com/zarchive/ticket-gateway/pkg/archive"
	"github.com/zarchive/ticket-gateway/pkg/cache"
	"github.com/zarchive/ticket-gateway/pkg/config"
	"github.com/zarchive/ticket-gateway/pkg/helpdesk"
	"github.com/zarchive/ticket-gateway/pkg/logger"
	corsmiddleware "github.com/zarchive/ticket-gateway/pkg/middleware/cors"
	reqidmiddleware "github.com/zarchive/ticket-gateway/pkg/middleware/requestid"
)

// @title Ticket Archive Gateway
// @version 0.1.0
// @description Forwards closed helpdesk tickets to tenant archive systems as PDF documents
// @BasePath /
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

	tenantStore, auditStore, err := buildStores(cfg)
	if err != nil {
		logr.Sugar().Fatalw("store init failed", "error", err)
	}

	metricsSvc := service.NewMetricsService()
	tenantSvc := service.NewTenantService(tenantStore, logr)
	authSvc := service.NewAuthService(cfg.Auth)

	newHelpdesk := func(creds models.HelpdeskCredentials) service.HelpdeskClient {
		return helpdesk.New(creds, cfg.Helpdesk)
	}
	newArchive := func(endpoint models.ArchiveEndpointConfig) (archive.Client, error) {
		return archive.New(endpoint, cfg.Forward.UploadTimeout, cfg.Forward.ArchiveTokenTTL)
	}

	forwardSvc := service.NewForwardService(
		tenantSvc,
		authSvc,
		newHelpdesk,
		newArchive,
		auditStore,
		metricsSvc,
		validator.New(),
		logr,
		service.ForwardServiceConfig{
			MaxAttachments:     cfg.Helpdesk.MaxAttachments,
			MaxAttachmentBytes: cfg.Helpdesk.MaxAttachmentBytes,
		},
	)
	auditSvc := service.NewAuditService(tenantSvc, authSvc, auditStore, logr, cfg.Audit.QueryMax)

	webhookHandler := handler.NewWebhookHandler(forwardSvc)
	forwardHandler := handler.NewForwardHandler(forwardSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.BodyLimit(cfg.Forward.MaxBodyBytes))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/webhooks/ticket-closed", webhookHandler.Receive)
	api.POST("/forward", forwardHandler.Forward)
	api.GET("/audit/:brandId", auditHandler.Query)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func buildStores(cfg *config.Config) (repository.TenantStore, *repository.RedisAuditStore, error) {
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}

	auditStore := repository.NewRedisAuditStore(redisClient, cfg.Audit.KeyPrefix, cfg.Audit.TTL)

	switch cfg.TenantStore.Driver {
	case "redis":
		return repository.NewRedisTenantStore(redisClient, cfg.TenantStore.KeyPrefix), auditStore, nil
	case "file":
		store, err := repository.NewFileTenantStore(cfg.TenantStore.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("tenant dir: %w", err)
		}
		return store, auditStore, nil
	default:
		return nil, nil, fmt.Errorf("unknown tenant store driver %q", cfg.TenantStore.Driver)
	}
}
