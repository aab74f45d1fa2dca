package store

import (
	"context"
	"fmt"
	"time"

	"promo-pulse/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store представляет интерфейс для работы с базой данных
type Store interface {
	Referral() ReferralRepository
	ReferredUser() ReferredUserRepository
	Lead() LeadRepository
	Subscription() SubscriptionRepository
	DB() *pgxpool.Pool
	Close() error
}

// store реализует интерфейс Store
type store struct {
	db           *pgxpool.Pool
	logger       *zap.Logger
	referral     ReferralRepository
	referredUser ReferredUserRepository
	lead         LeadRepository
	subscription SubscriptionRepository
}

// NewStore создает новое подключение к базе данных
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Создание пула подключений
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	// Настройка пула
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	// Создание пула
	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	// Проверка подключения
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ошибка проверки подключения к базе данных: %w", err)
	}

	logger.Info("успешное подключение к базе данных PostgreSQL")

	s := &store{
		db:     db,
		logger: logger,
	}

	// Инициализация репозиториев
	s.referral = NewReferralRepository(db, logger)
	s.referredUser = NewReferredUserRepository(db, logger)
	s.lead = NewLeadRepository(db, logger)
	s.subscription = NewSubscriptionRepository(db, logger)

	return s, nil
}

// Referral возвращает репозиторий рефералов
func (s *store) Referral() ReferralRepository {
	return s.referral
}

// ReferredUser возвращает репозиторий приглашенных пользователей
func (s *store) ReferredUser() ReferredUserRepository {
	return s.referredUser
}

// Lead возвращает репозиторий лидов
func (s *store) Lead() LeadRepository {
	return s.lead
}

// Subscription возвращает репозиторий подписок
func (s *store) Subscription() SubscriptionRepository {
	return s.subscription
}

// DB возвращает подключение к базе данных
func (s *store) DB() *pgxpool.Pool {
	return s.db
}

// Close закрывает подключение к базе данных
func (s *store) Close() error {
	s.logger.Info("закрытие подключения к базе данных")
	s.db.Close()
	return nil
}
