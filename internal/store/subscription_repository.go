package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// SubscriptionRepository определяет интерфейс чтения подписок.
// Подписками управляет внешняя биллинговая система, здесь только чтение.
type SubscriptionRepository interface {
	GetActivePlan(ctx context.Context, userID string) (string, bool, error)
}

// PostgresSubscriptionRepository реализует SubscriptionRepository для PostgreSQL
type PostgresSubscriptionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewSubscriptionRepository создает новый репозиторий подписок
func NewSubscriptionRepository(db *pgxpool.Pool, logger *zap.Logger) SubscriptionRepository {
	return &PostgresSubscriptionRepository{
		db:     db,
		logger: logger,
	}
}

// GetActivePlan возвращает план активной подписки пользователя.
// Возвращает false, если активной подписки нет.
func (r *PostgresSubscriptionRepository) GetActivePlan(ctx context.Context, userID string) (string, bool, error) {
	query := `
		SELECT plan
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1`

	var plan string
	err := r.db.QueryRow(ctx, query, userID).Scan(&plan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("ошибка получения плана подписки: %w", err)
	}

	return plan, true, nil
}
