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
	"go.uber.org/zap"

	_ "github.com/khoido2003/natour-api/api/swagger"
	"github.com/khoido2003/natour-api/internal/credential"
	"github.com/khoido2003/natour-api/internal/handler"
	"github.com/khoido2003/natour-api/internal/query"
	"github.com/khoido2003/natour-api/internal/repository"
	"github.com/khoido2003/natour-api/internal/service"
	"github.com/khoido2003/natour-api/internal/validation"
	"github.com/khoido2003/natour-api/pkg/cache"
	"github.com/khoido2003/natour-api/pkg/config"
	"github.com/khoido2003/natour-api/pkg/database"
	"github.com/khoido2003/natour-api/pkg/jobs"
	"github.com/khoido2003/natour-api/pkg/logger"
	"github.com/khoido2003/natour-api/pkg/mailer"
)

// @title Natours API
// @version 1.0.0
// @description Tours catalogue with filtering, sorting, projection and pagination, plus user accounts and credential lifecycle.
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		if version, err := database.MigrationVersion(ctx, db.DB); err == nil {
			logr.Info("database schema ready", zap.Int64("version", version))
		}
	}

	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect to redis", zap.Error(err))
		}
		redisRepo := repository.NewCacheRepository(client, logr)
		defer redisRepo.Close() //nolint:errcheck
		cacheRepo = redisRepo
		checks["redis"] = redisRepo.Ping
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	mailSvc := service.NewMailService(mailer.New(cfg.Mail, logr), metrics, logr)
	mailQueue := jobs.NewQueue("mail", mailSvc.Deliver, jobs.QueueConfig{
		Workers:    cfg.Mail.Workers,
		MaxRetries: cfg.Mail.Retries,
		Logger:     logr,
	})
	mailSvc.Bind(mailQueue)
	mailQueue.Start(ctx)
	defer mailQueue.Stop()

	validator := validation.New()
	queryOpts := query.Options{MaxLimit: cfg.Query.MaxLimit, LegacyOperatorRewrite: cfg.Query.LegacyOperatorRewrite}
	creds := credential.NewManager(credential.Config{BcryptCost: cfg.Password.BcryptCost, ResetTokenTTL: cfg.Password.ResetTokenTTL})

	userRepo := repository.NewUserRepository(db)
	tourRepo := repository.NewTourRepository(db)

	authSvc := service.NewAuthService(userRepo, creds, mailSvc, validator, metrics, logr, service.AuthConfig{
		Secret:      cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
		BaseURL:     cfg.AppBaseURL + cfg.APIPrefix,
	})
	userSvc := service.NewUserService(userRepo, validator, queryOpts, logr)
	tourSvc := service.NewTourService(tourRepo, cacheSvc, validator, queryOpts, logr)

	router := newRouter(routerDeps{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		CookieName:     cfg.JWT.CookieName,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Metrics:        metrics,
		Sessions:       authSvc,
		Tours:          handler.NewTourHandler(tourSvc),
		Auth: handler.NewAuthHandler(authSvc, handler.CookieConfig{
			Name:   cfg.JWT.CookieName,
			MaxAge: time.Duration(cfg.JWT.CookieDays) * 24 * time.Hour,
			Secure: cfg.JWT.CookieSecure,
		}),
		Users:   handler.NewUserHandler(userSvc),
		Monitor: handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logr.Error("http server stopped unexpectedly", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("http server shutdown failed", zap.Error(err))
	}
	logr.Info("http server stopped")
}
