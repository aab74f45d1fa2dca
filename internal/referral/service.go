package referral

import (
	"context"
	"fmt"
	"time"

	"promo-pulse/internal/apperr"
	"promo-pulse/internal/store"
	"promo-pulse/pkg/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// commissionRate — фиксированная ставка комиссии 20% от оплаченной суммы
var commissionRate = decimal.NewFromFloat(0.20)

// Notifier отправляет уведомления администраторам о событиях реферальной программы
type Notifier interface {
	ConversionTracked(referralCode, referredUserID, plan string, commission decimal.Decimal)
}

// Service представляет сервис реферальной программы
type Service struct {
	referralRepo     store.ReferralRepository
	referredUserRepo store.ReferredUserRepository
	notifier         Notifier
	logger           *zap.Logger
}

// NewService создает новый сервис реферальной программы
func NewService(referralRepo store.ReferralRepository, referredUserRepo store.ReferredUserRepository, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		referralRepo:     referralRepo,
		referredUserRepo: referredUserRepo,
		notifier:         notifier,
		logger:           logger,
	}
}

// LookupByOwnerEmail возвращает реферал владельца по email.
// Отсутствие записи — нормальный исход: возвращается nil без ошибки.
func (s *Service) LookupByOwnerEmail(ctx context.Context, ownerEmail string) (*models.Referral, error) {
	referral, err := s.referralRepo.GetByOwnerEmail(ctx, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска реферала: %w", err)
	}
	return referral, nil
}

// TrackSignup фиксирует регистрацию приглашенного пользователя.
// Контракт идемпотентности: повторный вызов с той же парой (код, email)
// не создает вторую строку и не трогает счетчик. Возвращает true, если
// регистрация уже была зафиксирована ранее.
func (s *Service) TrackSignup(ctx context.Context, referralCode, referredEmail string) (bool, error) {
	// Попытка вставки идет первой: при неизвестном коде она остается
	// безвредной осиротевшей строкой.
	inserted, err := s.referredUserRepo.InsertSignup(ctx, referralCode, referredEmail)
	if err != nil {
		return false, fmt.Errorf("ошибка фиксации регистрации: %w", err)
	}

	if !inserted {
		s.logger.Info("повторная регистрация проигнорирована",
			zap.String("referral_code", referralCode),
			zap.String("referred_email", referredEmail))
		return true, nil
	}

	// Атомарный инкремент: ноль затронутых строк означает неизвестный код
	incremented, err := s.referralRepo.IncrementReferredCount(ctx, referralCode)
	if err != nil {
		return false, fmt.Errorf("ошибка увеличения счетчика приглашенных: %w", err)
	}
	if !incremented {
		return false, apperr.NotFound(fmt.Sprintf("referral code %s not found", referralCode))
	}

	return false, nil
}

// TrackConversion фиксирует оплаченную конверсию приглашенного пользователя:
// вычисляет комиссию 20%, переводит пользователя в статус subscribed и
// атомарно прибавляет комиссию к накопленной сумме реферала.
func (s *Service) TrackConversion(ctx context.Context, referralCode, referredUserID, plan string, amount decimal.Decimal) (*models.ConversionResult, error) {
	if amount.IsNegative() {
		return nil, apperr.Validation([]apperr.FieldError{
			{Field: "amount", Message: "must be a non-negative number"},
		})
	}

	referral, err := s.referralRepo.GetByCode(ctx, referralCode)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска реферала: %w", err)
	}
	if referral == nil {
		return nil, apperr.NotFound(fmt.Sprintf("referral code %s not found", referralCode))
	}

	commission := amount.Mul(commissionRate)
	now := time.Now()

	updated, err := s.referredUserRepo.MarkSubscribed(ctx, referralCode, referredUserID, plan, commission, now)
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления приглашенного пользователя: %w", err)
	}
	if !updated {
		// Регистрация не была зафиксирована: конверсия все равно учитывается,
		// расхождение устранит джоба сверки
		s.logger.Warn("конверсия без зафиксированной регистрации",
			zap.String("referral_code", referralCode),
			zap.String("referred_user_id", referredUserID))
	}

	total, found, err := s.referralRepo.AddCommission(ctx, referralCode, commission)
	if err != nil {
		return nil, fmt.Errorf("ошибка начисления комиссии: %w", err)
	}
	if !found {
		return nil, apperr.NotFound(fmt.Sprintf("referral code %s not found", referralCode))
	}

	s.logger.Info("конверсия зафиксирована",
		zap.String("referral_code", referralCode),
		zap.String("referred_user_id", referredUserID),
		zap.String("plan", plan),
		zap.String("amount", amount.String()),
		zap.String("commission", commission.String()))

	if s.notifier != nil {
		s.notifier.ConversionTracked(referralCode, referredUserID, plan, commission)
	}

	return &models.ConversionResult{
		ReferralCode:    referralCode,
		Commission:      commission,
		TotalCommission: total,
	}, nil
}

// Reconcile сверяет накопленную комиссию каждого реферала с суммой комиссий
// его подписавшихся пользователей и устраняет расхождения.
// Возвращает количество исправленных записей.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	codes, err := s.referralRepo.ListCodes(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения реферальных кодов: %w", err)
	}

	corrected := 0
	for _, code := range codes {
		expected, err := s.referredUserRepo.SumSubscribedCommission(ctx, code)
		if err != nil {
			return corrected, fmt.Errorf("ошибка подсчета комиссий для кода %s: %w", code, err)
		}

		referral, err := s.referralRepo.GetByCode(ctx, code)
		if err != nil {
			return corrected, fmt.Errorf("ошибка получения реферала %s: %w", code, err)
		}
		if referral == nil {
			continue
		}

		if !referral.TotalCommission.Equal(expected) {
			s.logger.Warn("расхождение накопленной комиссии",
				zap.String("referral_code", code),
				zap.String("stored", referral.TotalCommission.String()),
				zap.String("expected", expected.String()))

			if err := s.referralRepo.SetTotalCommission(ctx, code, expected); err != nil {
				return corrected, fmt.Errorf("ошибка исправления комиссии для кода %s: %w", code, err)
			}
			corrected++
		}
	}

	return corrected, nil
}

// CommissionRate возвращает действующую ставку комиссии
func CommissionRate() decimal.Decimal {
	return commissionRate
}
