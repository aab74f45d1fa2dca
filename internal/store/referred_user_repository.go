package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"promo-pulse/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReferredUserRepository определяет интерфейс для работы с приглашенными пользователями
type ReferredUserRepository interface {
	InsertSignup(ctx context.Context, referralCode, referredEmail string) (bool, error)
	GetByCodeAndEmail(ctx context.Context, referralCode, referredEmail string) (*models.ReferredUser, error)
	MarkSubscribed(ctx context.Context, referralCode, referredUserID, plan string, commission decimal.Decimal, convertedAt time.Time) (bool, error)
	SumSubscribedCommission(ctx context.Context, referralCode string) (decimal.Decimal, error)
}

// PostgresReferredUserRepository реализует ReferredUserRepository для PostgreSQL
type PostgresReferredUserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewReferredUserRepository создает новый репозиторий приглашенных пользователей
func NewReferredUserRepository(db *pgxpool.Pool, logger *zap.Logger) ReferredUserRepository {
	return &PostgresReferredUserRepository{
		db:     db,
		logger: logger,
	}
}

// InsertSignup вставляет запись о регистрации со статусом signed_up.
// Повторная вставка той же пары (referral_code, referred_email) не создает
// вторую строку: конфликт уникальности гасится и возвращается false.
func (r *PostgresReferredUserRepository) InsertSignup(ctx context.Context, referralCode, referredEmail string) (bool, error) {
	query := `
		INSERT INTO referred_users (referral_code, referred_email, status, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (referral_code, referred_email) DO NOTHING`

	result, err := r.db.Exec(ctx, query,
		referralCode,
		referredEmail,
		string(models.ReferredUserStatusSignedUp),
		time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("ошибка создания записи о регистрации: %w", err)
	}

	inserted := result.RowsAffected() > 0
	if inserted {
		r.logger.Info("зафиксирована регистрация по реферальному коду",
			zap.String("referral_code", referralCode),
			zap.String("referred_email", referredEmail))
	}

	return inserted, nil
}

// GetByCodeAndEmail получает приглашенного пользователя по коду и email
func (r *PostgresReferredUserRepository) GetByCodeAndEmail(ctx context.Context, referralCode, referredEmail string) (*models.ReferredUser, error) {
	query := `
		SELECT id, referral_code, referred_email, referred_user_id, status, plan, commission_amount, converted_at, created_at
		FROM referred_users
		WHERE referral_code = $1 AND referred_email = $2`

	user := &models.ReferredUser{}
	err := r.db.QueryRow(ctx, query, referralCode, referredEmail).Scan(
		&user.ID,
		&user.ReferralCode,
		&user.ReferredEmail,
		&user.ReferredUserID,
		&user.Status,
		&user.Plan,
		&user.CommissionAmount,
		&user.ConvertedAt,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка получения приглашенного пользователя: %w", err)
	}

	return user, nil
}

// MarkSubscribed переводит приглашенного пользователя в статус subscribed,
// проставляя комиссию и время конверсии. Строка выбирается по коду и
// идентификатору пользователя (либо email, если идентификатор еще не записан).
func (r *PostgresReferredUserRepository) MarkSubscribed(ctx context.Context, referralCode, referredUserID, plan string, commission decimal.Decimal, convertedAt time.Time) (bool, error) {
	query := `
		UPDATE referred_users
		SET status = $3, referred_user_id = $2, plan = $4, commission_amount = $5, converted_at = $6
		WHERE referral_code = $1 AND (referred_user_id = $2 OR referred_email = $2)`

	result, err := r.db.Exec(ctx, query,
		referralCode,
		referredUserID,
		string(models.ReferredUserStatusSubscribed),
		plan,
		commission,
		convertedAt,
	)
	if err != nil {
		return false, fmt.Errorf("ошибка обновления статуса приглашенного пользователя: %w", err)
	}

	if result.RowsAffected() == 0 {
		return false, nil
	}

	r.logger.Info("приглашенный пользователь оформил подписку",
		zap.String("referral_code", referralCode),
		zap.String("referred_user_id", referredUserID),
		zap.String("plan", plan),
		zap.String("commission", commission.String()))

	return true, nil
}

// SumSubscribedCommission возвращает сумму комиссий по всем подписавшимся
// приглашенным пользователям реферального кода
func (r *PostgresReferredUserRepository) SumSubscribedCommission(ctx context.Context, referralCode string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(commission_amount), 0)
		FROM referred_users
		WHERE referral_code = $1 AND status = $2`

	var sum decimal.Decimal
	err := r.db.QueryRow(ctx, query, referralCode, string(models.ReferredUserStatusSubscribed)).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ошибка подсчета суммы комиссий: %w", err)
	}

	return sum, nil
}
