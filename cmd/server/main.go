package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"recovery-kita.backend/internal/config"
	"recovery-kita.backend/internal/infrastructure/email"
	"recovery-kita.backend/internal/infrastructure/jobs"
	"recovery-kita.backend/internal/infrastructure/payments"
	"recovery-kita.backend/internal/infrastructure/repositories"
	"recovery-kita.backend/internal/interfaces/http/handlers"
	"recovery-kita.backend/internal/interfaces/http/middleware"
	"recovery-kita.backend/internal/interfaces/http/response"
	"recovery-kita.backend/internal/usecases"
	"recovery-kita.backend/pkg/crypto"
	"recovery-kita.backend/pkg/jwt"
	"recovery-kita.backend/pkg/logger"
	"recovery-kita.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()
	if err := cfg.Validate(); err != nil {
		return err
	}

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
		response.SetProductionMode(true)
	}

	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	// Store pool first, then the encryption key, then the platform
	// provider client; everything downstream depends on this order.
	db, err := openDB(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("⚠️ Database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("✅ Connected to PostgreSQL via GORM")
	}

	cipher, err := crypto.NewTokenCipher(cfg.Security.EncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize token cipher: %w", err)
	}

	provider := payments.NewStripeClient(cfg.Stripe.SecretKey, cfg.Stripe.ClientID, cfg.Stripe.MeterName)
	emailSender := email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromAddress)
	verifier := jwt.NewVerifier(cfg.JWT.Secret)

	// Repositories
	merchantRepo := repositories.NewMerchantRepository(db, cipher)
	taskRepo := repositories.NewTaskRepository(db)
	usageLogRepo := repositories.NewUsageLogRepository(db)
	dailyMetricRepo := repositories.NewDailyMetricRepository(db)
	processedEventRepo := repositories.NewProcessedEventRepository(db)
	templateRepo := repositories.NewEmailTemplateRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Usecases
	quotaUsecase := usecases.NewQuotaUsecase(usageLogRepo, taskRepo)
	trackingUsecase := usecases.NewTrackingUsecase(usageLogRepo, cfg.Security.SessionSecret, cfg.Server.BaseURL)
	taskProcessor := usecases.NewTaskProcessor(merchantRepo, taskRepo, usageLogRepo, dailyMetricRepo, templateRepo,
		quotaUsecase, trackingUsecase, provider, emailSender)
	webhookUsecase := usecases.NewWebhookUsecase(merchantRepo, taskRepo, usageLogRepo, dailyMetricRepo, processedEventRepo, uow)
	merchantUsecase := usecases.NewMerchantUsecase(merchantRepo, taskRepo, usageLogRepo, dailyMetricRepo, provider, uow)
	connectUsecase := usecases.NewConnectUsecase(merchantRepo, taskRepo, usageLogRepo, provider)
	taskUsecase := usecases.NewTaskUsecase(taskRepo, usageLogRepo, quotaUsecase)
	dashboardUsecase := usecases.NewDashboardUsecase(taskRepo, usageLogRepo, dailyMetricRepo, quotaUsecase)
	templateUsecase := usecases.NewTemplateUsecase(templateRepo)

	// Background machinery: watchdog bootstrap, then worker, then janitor.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watchdog := jobs.NewWatchdog(taskRepo, merchantRepo)
	if err := watchdog.Bootstrap(ctx); err != nil {
		log.Printf("⚠️ Watchdog bootstrap failed: %v", err)
	}

	worker := jobs.NewWorker(taskRepo, taskProcessor,
		cfg.Worker.PollInterval, cfg.Worker.YieldInterval, cfg.Worker.ErrorBackoff)
	go worker.Start(ctx)

	janitor := jobs.NewJanitor(taskRepo, processedEventRepo,
		cfg.Worker.JanitorInterval, cfg.Worker.ZombieTimeout, cfg.Worker.EventRetention)
	go janitor.Start(ctx)

	// Handlers
	dashboardHandler := handlers.NewDashboardHandler(dashboardUsecase)
	taskHandler := handlers.NewTaskHandler(taskUsecase)
	merchantHandler := handlers.NewMerchantHandler(merchantUsecase)
	templateHandler := handlers.NewTemplateHandler(templateUsecase)
	webhookHandler := handlers.NewWebhookHandler(webhookUsecase, cfg.Stripe.WebhookSecret)
	workerHandler := handlers.NewWorkerHandler(taskRepo)
	connectHandler := handlers.NewConnectHandler(connectUsecase)
	trackingHandler := handlers.NewTrackingHandler(trackingUsecase)
	adminHandler := handlers.NewAdminHandler(merchantUsecase)

	authMiddleware := middleware.AuthMiddleware(verifier, merchantUsecase)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	registerHealthRoute(r)
	registerRoutes(r, routeDeps{
		dashboardHandler: dashboardHandler,
		taskHandler:      taskHandler,
		merchantHandler:  merchantHandler,
		templateHandler:  templateHandler,
		webhookHandler:   webhookHandler,
		workerHandler:    workerHandler,
		connectHandler:   connectHandler,
		trackingHandler:  trackingHandler,
		adminHandler:     adminHandler,
		authMiddleware:   authMiddleware,
		workerSecret:     cfg.Security.WorkerSecret,
		adminKey:         cfg.Security.AdminKey,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	// Graceful shutdown: close the listener, let in-flight worker
	// iterations finish, then exit.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}

		worker.Stop()
		janitor.Stop()
		cancel()
	}()

	log.Printf("🚀 Recovery-Kita Backend starting on port %s", cfg.Server.Port)
	log.Printf("❤️ Health: http://localhost:%s/health", cfg.Server.Port)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
