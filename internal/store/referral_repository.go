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

// ReferralRepository определяет интерфейс для работы с рефералами.
// Отсутствие записи не считается ошибкой: методы Get* возвращают nil, nil.
type ReferralRepository interface {
	GetByCode(ctx context.Context, referralCode string) (*models.Referral, error)
	GetByOwnerEmail(ctx context.Context, ownerEmail string) (*models.Referral, error)
	IncrementReferredCount(ctx context.Context, referralCode string) (bool, error)
	AddCommission(ctx context.Context, referralCode string, amount decimal.Decimal) (decimal.Decimal, bool, error)
	SetTotalCommission(ctx context.Context, referralCode string, total decimal.Decimal) error
	ListCodes(ctx context.Context) ([]string, error)
}

// PostgresReferralRepository реализует ReferralRepository для PostgreSQL
type PostgresReferralRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewReferralRepository создает новый репозиторий рефералов
func NewReferralRepository(db *pgxpool.Pool, logger *zap.Logger) ReferralRepository {
	return &PostgresReferralRepository{
		db:     db,
		logger: logger,
	}
}

// GetByCode получает реферал по реферальному коду
func (r *PostgresReferralRepository) GetByCode(ctx context.Context, referralCode string) (*models.Referral, error) {
	query := `
		SELECT id, referral_code, owner_email, referred_count, total_commission, created_at, updated_at
		FROM referrals
		WHERE referral_code = $1`

	referral := &models.Referral{}
	err := r.db.QueryRow(ctx, query, referralCode).Scan(
		&referral.ID,
		&referral.ReferralCode,
		&referral.OwnerEmail,
		&referral.ReferredCount,
		&referral.TotalCommission,
		&referral.CreatedAt,
		&referral.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка получения реферала по коду: %w", err)
	}

	return referral, nil
}

// GetByOwnerEmail получает реферал по email владельца (email хранится в нижнем регистре)
func (r *PostgresReferralRepository) GetByOwnerEmail(ctx context.Context, ownerEmail string) (*models.Referral, error) {
	query := `
		SELECT id, referral_code, owner_email, referred_count, total_commission, created_at, updated_at
		FROM referrals
		WHERE owner_email = $1`

	referral := &models.Referral{}
	err := r.db.QueryRow(ctx, query, ownerEmail).Scan(
		&referral.ID,
		&referral.ReferralCode,
		&referral.OwnerEmail,
		&referral.ReferredCount,
		&referral.TotalCommission,
		&referral.CreatedAt,
		&referral.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка получения реферала по email: %w", err)
	}

	return referral, nil
}

// IncrementReferredCount атомарно увеличивает счетчик приглашенных.
// Возвращает false, если реферальный код не существует.
func (r *PostgresReferralRepository) IncrementReferredCount(ctx context.Context, referralCode string) (bool, error) {
	query := `
		UPDATE referrals
		SET referred_count = referred_count + 1, updated_at = $2
		WHERE referral_code = $1`

	result, err := r.db.Exec(ctx, query, referralCode, time.Now())
	if err != nil {
		return false, fmt.Errorf("ошибка увеличения счетчика приглашенных: %w", err)
	}

	if result.RowsAffected() == 0 {
		return false, nil
	}

	r.logger.Info("счетчик приглашенных увеличен", zap.String("referral_code", referralCode))
	return true, nil
}

// AddCommission атомарно прибавляет комиссию к накопленной сумме.
// Возвращает новую сумму и false, если реферальный код не существует.
func (r *PostgresReferralRepository) AddCommission(ctx context.Context, referralCode string, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	query := `
		UPDATE referrals
		SET total_commission = total_commission + $2, updated_at = $3
		WHERE referral_code = $1
		RETURNING total_commission`

	var total decimal.Decimal
	err := r.db.QueryRow(ctx, query, referralCode, amount, time.Now()).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("ошибка начисления комиссии: %w", err)
	}

	r.logger.Info("комиссия начислена",
		zap.String("referral_code", referralCode),
		zap.String("amount", amount.String()),
		zap.String("total_commission", total.String()))

	return total, true, nil
}

// SetTotalCommission выставляет абсолютное значение накопленной комиссии.
// Используется только джобой сверки для устранения расхождений.
func (r *PostgresReferralRepository) SetTotalCommission(ctx context.Context, referralCode string, total decimal.Decimal) error {
	query := `
		UPDATE referrals
		SET total_commission = $2, updated_at = $3
		WHERE referral_code = $1`

	result, err := r.db.Exec(ctx, query, referralCode, total, time.Now())
	if err != nil {
		return fmt.Errorf("ошибка обновления накопленной комиссии: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("реферал с кодом %s не найден", referralCode)
	}

	return nil
}

// ListCodes возвращает все реферальные коды
func (r *PostgresReferralRepository) ListCodes(ctx context.Context) ([]string, error) {
	query := `SELECT referral_code FROM referrals ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения реферальных кодов: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("ошибка сканирования реферального кода: %w", err)
		}
		codes = append(codes, code)
	}

	return codes, nil
}
