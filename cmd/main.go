package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promo-pulse/internal/ai"
	"promo-pulse/internal/api"
	"promo-pulse/internal/config"
	"promo-pulse/internal/geo"
	"promo-pulse/internal/leads"
	"promo-pulse/internal/metrics"
	"promo-pulse/internal/migrations"
	"promo-pulse/internal/notify"
	"promo-pulse/internal/plans"
	"promo-pulse/internal/referral"
	"promo-pulse/internal/scheduler"
	"promo-pulse/internal/store"

	"go.uber.org/zap"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера
	logger, err := initLogger(cfg)
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("запуск приложения PromoPulse")

	// Инициализация базы данных
	db, err := store.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal("ошибка инициализации базы данных", zap.Error(err))
	}
	defer db.Close()

	// Применение миграций
	if err := migrations.RunMigrations(cfg, logger); err != nil {
		logger.Fatal("ошибка применения миграций", zap.Error(err))
	}

	// Инициализация уведомлений администраторов
	notifier := notify.NewTelegramNotifier(cfg.Notify.BotToken, cfg.Notify.AdminChatID, logger)

	// Инициализация сервисов
	referralService := referral.NewService(db.Referral(), db.ReferredUser(), notifier, logger)
	leadService := leads.NewService(db.Lead(), notifier, logger)
	planResolver := plans.NewResolver()

	// Инициализация клиентов внешних API
	logger.Info("конфигурация внешних API",
		zap.String("chat_model", cfg.Chat.Model),
		zap.String("geo_base_url", cfg.Geo.BaseURL))

	chatClient := ai.NewClient(cfg.Chat, logger)
	geoClient := geo.NewClient(cfg.Geo, logger)

	// Инициализация метрик
	metricsSystem := metrics.New(logger)
	metricsHandler := metrics.NewHandler(metricsSystem, db.DB(), logger)

	// Инициализация HTTP обработчиков и маршрутизатора
	handler := api.NewHandler(referralService, leadService, planResolver, db.Subscription(), chatClient, geoClient, metricsSystem, logger)
	router := api.NewRouter(cfg, handler, metricsHandler, metricsSystem, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Инициализация планировщика задач
	taskScheduler := scheduler.NewScheduler(logger)
	taskScheduler.AddJob(scheduler.NewReconcileJob(referralService, logger), 6*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Обработка сигналов для graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Запуск планировщика
	go taskScheduler.Start(ctx)

	// Запуск HTTP сервера
	go func() {
		logger.Info("HTTP сервер запущен", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ошибка HTTP сервера", zap.Error(err))
		}
	}()

	logger.Info("приложение запущено и готово к работе",
		zap.String("address", fmt.Sprintf("http://localhost:%d", cfg.App.Port)))

	// Ожидание сигнала завершения
	<-sigChan
	logger.Info("получен сигнал завершения, начинаем graceful shutdown")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка при остановке HTTP сервера", zap.Error(err))
	}

	logger.Info("приложение завершено")
}

// initLogger инициализирует логгер
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.App.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = cfg.App.GetLogLevel()

	return zapConfig.Build()
}
