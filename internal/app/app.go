package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskmarket_backend/database"
	"taskmarket_backend/internal/auth"
	"taskmarket_backend/internal/cache"
	"taskmarket_backend/internal/config"
	"taskmarket_backend/internal/email"
	"taskmarket_backend/internal/handlers"
	"taskmarket_backend/internal/logger"
	"taskmarket_backend/internal/middleware"
	"taskmarket_backend/internal/moderation"
	"taskmarket_backend/internal/models"
	"taskmarket_backend/internal/payments"
	"taskmarket_backend/internal/repositories"
	"taskmarket_backend/internal/routes"
	"taskmarket_backend/internal/services"
	"taskmarket_backend/internal/validator"
	"taskmarket_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	logger.Info("logger initialized", "env", cfg.Server.Env)

	gormDB, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	sqlDB, err := database.SQLDB()
	if err != nil {
		logger.Fatal("failed to get *sql.DB from GORM", "error", err)
	}
	if err := sqlDB.Ping(); err != nil {
		logger.Fatal("database unavailable", "error", err)
	}
	logger.Info("database connected")

	if err := database.AutoMigrate(); err != nil {
		logger.Fatal("migration failed", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("failed to seed first admin user", "error", err)
	}

	redisCache, err := cache.Connect(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("failed to connect to redis", "error", err)
	}
	defer redisCache.Close()
	logger.Info("redis connected", "addr", cfg.Redis.Addr)

	issuer := auth.NewTokenIssuer(cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute)

	serviceContainer := initializeServices(cfg, sqlDB, redisCache, issuer)
	appHandlers := initializeHandlers(serviceContainer)

	router := initializeGinRouter(cfg)
	routes.RegisterRoutes(router, appHandlers, issuer)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	taskWorker := workers.NewTaskWorker(serviceContainer.TaskService)
	taskWorker.Start(workerCtx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    address,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server startup error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
}

func initializeServices(cfg *config.Config, sqlDB *sql.DB, redisCache *cache.Cache, issuer *auth.TokenIssuer) *services.ServiceContainer {
	userRepo := repositories.NewUserRepository(sqlDB)
	taskRepo := repositories.NewTaskRepository(sqlDB)
	appRepo := repositories.NewApplicationRepository(sqlDB)
	paymentRepo := repositories.NewPaymentRepository(sqlDB)
	reviewRepo := repositories.NewReviewRepository(sqlDB)
	reputationRepo := repositories.NewReputationRepository(sqlDB)
	auditRepo := repositories.NewAuditRepository(sqlDB)
	messageRepo := repositories.NewMessageRepository(sqlDB)

	var emailProvider email.Provider
	if cfg.Email.SMTPHost != "" {
		emailProvider = email.NewSMTPProvider(&email.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
			From:     cfg.Email.FromEmail,
			UseTLS:   cfg.Email.UseTLS,
		})
	} else {
		logger.Warn("no SMTP host configured, outbound email disabled")
		emailProvider = &MockEmailProvider{}
	}
	notifier := email.NewNotifier(emailProvider)

	gateway := payments.NewStripeGateway(cfg.Payments.StripeSecretKey, cfg.Payments.BaseURL)
	classifier := moderation.NewClassifier()

	reputationCache := cache.NewReputationCache(redisCache)
	reputationService := services.NewReputationService(reputationRepo, reviewRepo, paymentRepo, userRepo, reputationCache)

	authService := services.NewAuthService(userRepo, issuer)
	userService := services.NewUserService(userRepo, auditRepo, reputationService)
	taskService := services.NewTaskService(
		taskRepo, appRepo, paymentRepo, userRepo, auditRepo,
		classifier, gateway, reputationService, notifier,
	)
	applicationService := services.NewApplicationService(appRepo, taskRepo, userRepo, classifier)
	reviewService := services.NewReviewService(reviewRepo, taskRepo, reputationService)
	messageService := services.NewMessageService(messageRepo, taskRepo, classifier)

	return &services.ServiceContainer{
		AuthService:        authService,
		UserService:        userService,
		TaskService:        taskService,
		ApplicationService: applicationService,
		ReviewService:      reviewService,
		ReputationService:  reputationService,
		MessageService:     messageService,
	}
}

func initializeHandlers(container *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		AuthHandler:        handlers.NewAuthHandler(baseHandler, container.AuthService),
		UserHandler:        handlers.NewUserHandler(baseHandler, container.UserService),
		TaskHandler:        handlers.NewTaskHandler(baseHandler, container.TaskService),
		ApplicationHandler: handlers.NewApplicationHandler(baseHandler, container.ApplicationService),
		ReviewHandler:      handlers.NewReviewHandler(baseHandler, container.ReviewService, container.ReputationService),
		MessageHandler:     handlers.NewMessageHandler(baseHandler, container.MessageService),
	}
}

func initializeGinRouter(cfg *config.Config) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	return router
}

// seedFirstAdmin creates the bootstrap admin account on first run. Skipped
// when no credentials are configured or the account already exists.
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.Admin.Email
	adminPassword := cfg.Admin.Password

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("admin email or password not configured, skipping admin seeding")
		return nil
	}

	var existing models.User
	result := db.Where("email = ?", adminEmail).First(&existing)
	if result.Error == nil {
		logger.Info("admin user already exists", "email", adminEmail)
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        adminEmail,
		PasswordHash: string(hashedPassword),
		FirstName:    "Platform",
		LastName:     "Administrator",
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
	}

	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("created first admin user", "email", adminEmail)
	return nil
}
