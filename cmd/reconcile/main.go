package main

import (
	"context"
	"flag"
	"log"
	"time"

	"promo-pulse/internal/config"
	"promo-pulse/internal/referral"
	"promo-pulse/internal/store"

	"go.uber.org/zap"
)

func main() {
	var (
		timeout = flag.Duration("timeout", 5*time.Minute, "Максимальное время выполнения сверки")
		dryRun  = flag.Bool("dry-run", false, "Показать расхождения без исправления")
	)
	flag.Parse()

	// Инициализация логгера
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Ошибка инициализации логгера:", err)
	}
	defer logger.Sync()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}

	// Подключение к базе данных
	db, err := store.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal("Ошибка подключения к базе данных", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *dryRun {
		if err := reportDrift(ctx, db, logger); err != nil {
			logger.Fatal("Ошибка проверки расхождений", zap.Error(err))
		}
		return
	}

	referralService := referral.NewService(db.Referral(), db.ReferredUser(), nil, logger)

	corrected, err := referralService.Reconcile(ctx)
	if err != nil {
		logger.Fatal("Ошибка сверки комиссий", zap.Error(err))
	}

	logger.Info("Сверка комиссий завершена", zap.Int("corrected", corrected))
}

// reportDrift выводит расхождения комиссий без их исправления
func reportDrift(ctx context.Context, db store.Store, logger *zap.Logger) error {
	codes, err := db.Referral().ListCodes(ctx)
	if err != nil {
		return err
	}

	drifted := 0
	for _, code := range codes {
		ref, err := db.Referral().GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if ref == nil {
			continue
		}

		expected, err := db.ReferredUser().SumSubscribedCommission(ctx, code)
		if err != nil {
			return err
		}

		if !ref.TotalCommission.Equal(expected) {
			drifted++
			logger.Info("DRY RUN: расхождение комиссии",
				zap.String("referral_code", code),
				zap.String("stored", ref.TotalCommission.StringFixed(2)),
				zap.String("expected", expected.StringFixed(2)))
		}
	}

	logger.Info("DRY RUN: проверка завершена",
		zap.Int("codes", len(codes)),
		zap.Int("drifted", drifted))

	return nil
}
