package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	deliveryHTTP "github.com/frontandrew/yard/internal/delivery/http"
	"github.com/frontandrew/yard/internal/pkg/config"
	"github.com/frontandrew/yard/internal/pkg/database"
	"github.com/frontandrew/yard/internal/pkg/jwt"
	"github.com/frontandrew/yard/internal/pkg/lock"
	"github.com/frontandrew/yard/internal/pkg/logger"
	"github.com/frontandrew/yard/internal/pkg/redis"
	"github.com/frontandrew/yard/internal/repository/cached"
	"github.com/frontandrew/yard/internal/repository/postgres"
	"github.com/frontandrew/yard/internal/usecase/admission"
	"github.com/frontandrew/yard/internal/usecase/report"
	"github.com/frontandrew/yard/internal/usecase/visit"
	"github.com/frontandrew/yard/internal/usecase/weighing"
)

func main() {
	// =========================================================================
	// Загрузка конфигурации
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// =========================================================================
	// Инициализация logger
	// =========================================================================

	log := logger.New(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.Output)
	log.Info("Starting YARD API server", map[string]interface{}{
		"version": "1.0.0",
	})

	// =========================================================================
	// Подключение к PostgreSQL
	// =========================================================================

	ctx := context.Background()
	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer database.Close(db)

	log.Info("Connected to PostgreSQL", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Database,
	})

	// =========================================================================
	// Подключение к Redis
	// =========================================================================

	cache, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Failed to connect to Redis", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer cache.Close()

	log.Info("Connected to Redis", map[string]interface{}{
		"host": cfg.Redis.Host,
		"port": cfg.Redis.Port,
	})

	// =========================================================================
	// Создание repositories
	// =========================================================================

	vehicleRepo := postgres.NewVehicleRepository(db)
	permitRepo := postgres.NewPermitRepository(db)
	taskRepo := postgres.NewTaskRepository(db)
	visitRepo := postgres.NewVisitRepository(db)
	requirementRepo := postgres.NewRequirementRepository(db)
	weighingRepo := postgres.NewWeighingRepository(db)

	// Политика площадки читается на каждом событии КПП - кэшируем
	yardRepo := cached.NewYardRepository(postgres.NewYardRepository(db), cache)

	log.Info("Repositories initialized")

	// =========================================================================
	// Создание JWT token service
	// =========================================================================

	tokenService := jwt.NewTokenService(cfg.JWT.SecretKey)

	// =========================================================================
	// Создание use case services
	// =========================================================================

	locks := lock.NewKeyedMutex()

	weighingService := weighing.NewService(requirementRepo, weighingRepo, visitRepo, permitRepo, taskRepo, vehicleRepo, locks, log)
	admissionService := admission.NewService(vehicleRepo, permitRepo, visitRepo, taskRepo, yardRepo, weighingService, locks, log, cfg.Admission)
	visitService := visit.NewService(visitRepo, vehicleRepo, permitRepo, taskRepo, yardRepo, weighingService, locks, log)
	reportService := report.NewService(visitRepo, log)

	log.Info("Use case services initialized")

	// =========================================================================
	// Создание HTTP handlers
	// =========================================================================

	admissionHandler := deliveryHTTP.NewAdmissionHandler(admissionService, log)
	visitHandler := deliveryHTTP.NewVisitHandler(visitService, log)
	weighingHandler := deliveryHTTP.NewWeighingHandler(weighingService, log)
	reportHandler := deliveryHTTP.NewReportHandler(reportService, log)

	// =========================================================================
	// Создание и настройка HTTP router
	// =========================================================================

	router := deliveryHTTP.NewRouter(
		admissionHandler,
		visitHandler,
		weighingHandler,
		reportHandler,
		tokenService,
		cfg,
		log,
	)

	handler := router.Setup()

	log.Info("HTTP router configured")

	// =========================================================================
	// Создание HTTP сервера
	// =========================================================================

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// =========================================================================
	// Запуск сервера в goroutine
	// =========================================================================

	serverErrors := make(chan error, 1)

	go func() {
		log.Info("API server listening", map[string]interface{}{
			"address": srv.Addr,
		})
		serverErrors <- srv.ListenAndServe()
	}()

	// =========================================================================
	// Graceful shutdown
	// =========================================================================

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatal("Server error", map[string]interface{}{
			"error": err.Error(),
		})

	case sig := <-shutdown:
		log.Info("Shutdown signal received", map[string]interface{}{
			"signal": sig.String(),
		})

		// Даем серверу 30 секунд на graceful shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Graceful shutdown failed", map[string]interface{}{
				"error": err.Error(),
			})

			if err := srv.Close(); err != nil {
				log.Fatal("Failed to close server", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}

		log.Info("Server stopped gracefully")
	}
}
