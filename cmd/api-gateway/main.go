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

	_ "github.com/noah-isme/campus-lostfound-api/api/swagger"
	"github.com/noah-isme/campus-lostfound-api/internal/handler"
	"github.com/noah-isme/campus-lostfound-api/internal/middleware"
	"github.com/noah-isme/campus-lostfound-api/internal/models"
	"github.com/noah-isme/campus-lostfound-api/internal/repository"
	"github.com/noah-isme/campus-lostfound-api/internal/service"
	"github.com/noah-isme/campus-lostfound-api/pkg/cache"
	"github.com/noah-isme/campus-lostfound-api/pkg/config"
	"github.com/noah-isme/campus-lostfound-api/pkg/database"
	"github.com/noah-isme/campus-lostfound-api/pkg/jobs"
	"github.com/noah-isme/campus-lostfound-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-lostfound-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-lostfound-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-lostfound-api/pkg/storage"
)

// @title Campus Lost & Found API
// @version 0.1.0
// @description Item recovery workflow for the campus lost and found office
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, availability cache disabled", "error", err)
		redisClient = nil
	}

	receiptStorage, err := storage.NewLocalStorage(cfg.Receipts.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare receipt storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Receipts.SignedURLSecret, cfg.Receipts.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	itemRepo := repository.NewFoundItemRepository(db)
	reportRepo := repository.NewLostReportRepository(db)
	claimRepo := repository.NewClaimRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	claimSvc := service.NewClaimService(claimRepo, itemRepo, reportRepo, cacheRepo, userRepo, metricsSvc, validate, logr, cfg.Availability.CacheTTL)
	matchSvc := service.NewMatchService(matchRepo, itemRepo, reportRepo, cacheRepo, userRepo, metricsSvc, validate, logr, cfg.Matches.ExpiryTTL)
	verificationSvc := service.NewVerificationService(verificationRepo, claimRepo, cacheRepo, userRepo, metricsSvc, validate, logr)
	returnSvc := service.NewReturnService(receiptRepo, claimRepo, matchRepo, itemRepo, cacheRepo, userRepo, metricsSvc, receiptStorage, signer, validate, logr)
	itemSvc := service.NewFoundItemService(itemRepo, claimRepo, matchRepo, receiptRepo, reportRepo, cacheRepo, userRepo, metricsSvc, validate, logr)
	reportSvc := service.NewLostReportService(reportRepo, userRepo, metricsSvc, validate, logr)

	renderQueue := jobs.NewQueue("receipt-render", returnSvc.HandleRenderJob, jobs.QueueConfig{
		Workers:    cfg.Receipts.WorkerConcurrency,
		MaxRetries: cfg.Receipts.WorkerRetries,
		Logger:     logr,
	})
	returnSvc.SetQueue(renderQueue)
	matchSvc.SetRenderScheduler(returnSvc)

	authHandler := handler.NewAuthHandler(authSvc)
	itemHandler := handler.NewFoundItemHandler(itemSvc)
	reportHandler := handler.NewLostReportHandler(reportSvc)
	claimHandler := handler.NewClaimHandler(claimSvc)
	matchHandler := handler.NewMatchHandler(matchSvc)
	verificationHandler := handler.NewVerificationHandler(verificationSvc)
	receiptHandler := handler.NewReceiptHandler(returnSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staff := []models.UserRole{models.RoleAdmin, models.RoleStaff}
	office := []models.UserRole{models.RoleAdmin, models.RoleStaff, models.RoleSecurity}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/receipts/download/:token", receiptHandler.ServeDocument)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/auth/me", authHandler.Me)

		authed.GET("/items", itemHandler.List)
		authed.GET("/items/:id", itemHandler.Get)
		authed.GET("/items/:id/availability", claimHandler.Availability)
		authed.POST("/items", middleware.RequireRoles(models.RoleAdmin, models.RoleSecurity), itemHandler.Register)
		authed.GET("/items/:id/case", middleware.RequireRoles(office...), itemHandler.Case)
		authed.POST("/items/:id/dispose", middleware.RequireRoles(models.RoleAdmin, models.RoleSecurity), itemHandler.Dispose)

		authed.POST("/reports", middleware.RequireRoles(models.RoleStudent), reportHandler.Create)
		authed.GET("/reports", reportHandler.List)
		authed.GET("/reports/:id", reportHandler.Get)
		authed.POST("/reports/:id/review", middleware.RequireRoles(staff...), reportHandler.Review)

		authed.POST("/claims", middleware.RequireRoles(models.RoleStudent), claimHandler.Create)
		authed.GET("/claims", claimHandler.List)
		authed.GET("/claims/:id", claimHandler.Get)
		authed.POST("/claims/:id/cancel", claimHandler.Cancel)
		authed.GET("/claims/:id/verification", verificationHandler.GetByClaim)

		authed.POST("/matches", middleware.RequireRoles(staff...), matchHandler.Create)
		authed.GET("/matches", matchHandler.List)
		authed.GET("/matches/:id", matchHandler.Get)
		authed.POST("/matches/:id/confirm", middleware.RequireRoles(models.RoleStudent), matchHandler.Confirm)
		authed.POST("/matches/:id/reject", matchHandler.Reject)
		authed.POST("/matches/:id/resolve", middleware.RequireRoles(office...), matchHandler.Resolve)

		authed.POST("/verifications", middleware.RequireRoles(staff...), verificationHandler.Request)
		authed.GET("/verifications/:id", verificationHandler.Get)
		authed.POST("/verifications/:id/decide", middleware.RequireRoles(models.RoleAdmin, models.RoleSecurity), verificationHandler.Decide)

		authed.POST("/receipts", middleware.RequireRoles(office...), receiptHandler.Create)
		authed.GET("/receipts", receiptHandler.List)
		authed.GET("/receipts/export", middleware.RequireRoles(staff...), receiptHandler.Export)
		authed.GET("/receipts/:id", receiptHandler.Get)
		authed.GET("/receipts/:id/download", receiptHandler.Download)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	renderQueue.Start(ctx)
	defer renderQueue.Stop()

	if cfg.Matches.SweepEnabled {
		go matchSvc.StartSweeper(ctx, cfg.Matches.SweepInterval)
	}
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metricsSvc.SetQueueDepth(renderQueue.Depth())
			}
		}
	}()

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
