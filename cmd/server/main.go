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

	_ "github.com/noah-isme/sma-fee-tracker/api/swagger"
	"github.com/noah-isme/sma-fee-tracker/internal/handler"
	"github.com/noah-isme/sma-fee-tracker/internal/listing"
	"github.com/noah-isme/sma-fee-tracker/internal/middleware"
	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/internal/repository"
	"github.com/noah-isme/sma-fee-tracker/internal/service"
	"github.com/noah-isme/sma-fee-tracker/pkg/cache"
	"github.com/noah-isme/sma-fee-tracker/pkg/config"
	"github.com/noah-isme/sma-fee-tracker/pkg/database"
	"github.com/noah-isme/sma-fee-tracker/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-fee-tracker/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-fee-tracker/pkg/middleware/requestid"
	"github.com/noah-isme/sma-fee-tracker/pkg/storage"
)

// @title SMA Fee Tracker API
// @version 1.0.0
// @description School fee tracking with searchable, sortable and paged listings.
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		version, err := database.Migrate(cfg.Database)
		if err != nil {
			logr.Fatal("database migration failed", zap.Error(err))
		}
		logr.Info("database migrated", zap.Uint("version", version))
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	checks := map[string]handler.Pinger{"database": db}
	var cacheRepo service.CacheRepository
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	switch {
	case err == nil:
		defer redisClient.Close() //nolint:errcheck
		repo := repository.NewCacheRepository(redisClient)
		cacheRepo = repo
		checks["redis"] = repo
	case errors.Is(err, cache.ErrDisabled):
		logr.Info("redis disabled, listing cache off")
	default:
		logr.Warn("redis unavailable, listing cache off", zap.Error(err))
	}

	uploadFiles, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare upload storage", zap.Error(err))
	}
	exportFiles, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}

	schoolRepo := repository.NewSchoolRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	periodRepo := repository.NewPaymentPeriodRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	uploadRepo := repository.NewUploadRepository(db)
	userRepo := repository.NewUserRepository(db)

	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && cacheRepo != nil)
	deps := service.ListingDeps{
		Cache:   cacheSvc,
		Metrics: metrics,
		Config: service.ListingConfig{
			StrictFields:      cfg.Query.StrictFields,
			Workers:           cfg.Query.Workers,
			ParallelThreshold: cfg.Query.ParallelThreshold,
			CacheTTL:          cfg.Cache.TTL,
		},
		Logger: logr,
	}

	authSvc := service.NewAuthService(userRepo, cacheSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	schoolSvc := service.NewSchoolService(schoolRepo, deps, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, schoolRepo, deps, validate, logr)
	periodSvc := service.NewPaymentPeriodService(periodRepo, schoolRepo, deps, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, studentRepo, periodRepo, uploadRepo, uploadFiles, deps, validate, logr)
	uploadSvc := service.NewUploadService(uploadRepo, paymentRepo, uploadFiles,
		storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL), deps, logr,
		service.UploadServiceConfig{
			MaxFileSize:  cfg.Uploads.MaxFileSizeBytes,
			AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
			APIPrefix:    cfg.APIPrefix,
		})
	userSvc := service.NewUserService(userRepo, schoolRepo, deps, validate, logr)
	exportSvc := service.NewExportService(map[string]service.TableSource{
		service.ResourceSchools:        schoolSvc,
		service.ResourceStudents:       studentSvc,
		service.ResourcePaymentPeriods: periodSvc,
		service.ResourcePayments:       paymentSvc,
		service.ResourceUsers:          userSvc,
	}, exportFiles, storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL), metrics, validate, logr,
		service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.Retention})
	exportSvc.StartCleanup(ctx, cfg.Exports.CleanupInterval)

	params := handler.ListParams{DefaultPageSize: cfg.Query.DefaultPageSize, MaxPageSize: cfg.Query.MaxPageSize}
	allPayments := func(ctx context.Context, actor *models.JWTClaims, q models.ListQuery, opts service.ListOptions) (*models.ListResult[models.PaymentDetail], error) {
		return paymentSvc.List(ctx, actor, service.PaymentFilter{}, q, opts)
	}
	handlers := handler.Handlers{
		Health:         handler.NewHealthHandler(metrics, checks, logr),
		Auth:           handler.NewAuthHandler(authSvc, cfg.Env == config.EnvProduction),
		Schools:        handler.NewSchoolHandler(schoolSvc, params),
		Students:       handler.NewStudentHandler(studentSvc, params),
		PaymentPeriods: handler.NewPaymentPeriodHandler(periodSvc, params),
		Payments:       handler.NewPaymentHandler(paymentSvc, params),
		Uploads:        handler.NewUploadHandler(uploadSvc, params, cfg.Uploads.MaxFileSizeBytes),
		Exports:        handler.NewExportHandler(exportSvc),
		Users:          handler.NewUserHandler(userSvc, params),
		Web: handler.NewWebHandler(params, logr,
			handler.NewWebResource(service.ResourceSchools, "Schools", schoolSvc.List, listing.SchoolFields,
				handler.WebColumn{Path: "Code", Sort: "Code"},
				handler.WebColumn{Path: "Name", Sort: "Name"},
				handler.WebColumn{Path: "Email"},
				handler.WebColumn{Path: "Phone"},
				handler.WebColumn{Path: "Active", Sort: "Active"},
			),
			handler.NewWebResource(service.ResourceStudents, "Students", studentSvc.List, listing.StudentFields,
				handler.WebColumn{Path: "NIS", Sort: "NIS"},
				handler.WebColumn{Path: "FullName", Label: "Name", Sort: "FullName"},
				handler.WebColumn{Path: "ClassName", Label: "Class", Sort: "ClassName"},
				handler.WebColumn{Path: "School.Name", Label: "School", Sort: "School"},
				handler.WebColumn{Path: "EnrolledAt", Label: "Enrolled", Sort: "EnrolledAt"},
			),
			handler.NewWebResource(service.ResourcePaymentPeriods, "Payment periods", periodSvc.List, listing.PaymentPeriodFields,
				handler.WebColumn{Path: "Name", Sort: "Name"},
				handler.WebColumn{Path: "School.Name", Label: "School", Sort: "School"},
				handler.WebColumn{Path: "StartsOn", Label: "Starts", Sort: "StartsOn"},
				handler.WebColumn{Path: "DueOn", Label: "Due", Sort: "DueOn"},
				handler.WebColumn{Path: "Amount", Sort: "Amount"},
			),
			handler.NewWebResource(service.ResourcePayments, "Payments", allPayments, listing.PaymentFields,
				handler.WebColumn{Path: "ReceiptNumber", Label: "Receipt", Sort: "ReceiptNumber"},
				handler.WebColumn{Path: "Student.FullName", Label: "Student", Sort: "Student"},
				handler.WebColumn{Path: "Period.Name", Label: "Period", Sort: "Period"},
				handler.WebColumn{Path: "Amount", Sort: "Amount"},
				handler.WebColumn{Path: "Method", Sort: "Method"},
				handler.WebColumn{Path: "PaidAt", Label: "Paid", Sort: "PaidAt"},
			),
			handler.NewWebResource(service.ResourceUsers, "Users", userSvc.List, listing.UserFields,
				handler.WebColumn{Path: "Email", Sort: "Email"},
				handler.WebColumn{Path: "FullName", Label: "Name", Sort: "FullName"},
				handler.WebColumn{Path: "Role", Sort: "Role"},
				handler.WebColumn{Path: "LastLogin", Label: "Last login", Sort: "LastLogin"},
			).RequireRole(models.RoleSuperAdmin),
		),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handlers.Register(r, cfg.APIPrefix, middleware.JWT(authSvc))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
