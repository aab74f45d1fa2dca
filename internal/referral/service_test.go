package referral

import (
	"context"
	"testing"
	"time"

	"promo-pulse/internal/apperr"
	"promo-pulse/pkg/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// fakeReferralRepo — реализация ReferralRepository в памяти для тестов
type fakeReferralRepo struct {
	referrals map[string]*models.Referral
}

func newFakeReferralRepo() *fakeReferralRepo {
	return &fakeReferralRepo{referrals: make(map[string]*models.Referral)}
}

func (r *fakeReferralRepo) GetByCode(_ context.Context, code string) (*models.Referral, error) {
	ref, ok := r.referrals[code]
	if !ok {
		return nil, nil
	}
	copied := *ref
	return &copied, nil
}

func (r *fakeReferralRepo) GetByOwnerEmail(_ context.Context, email string) (*models.Referral, error) {
	for _, ref := range r.referrals {
		if ref.OwnerEmail == email {
			copied := *ref
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeReferralRepo) IncrementReferredCount(_ context.Context, code string) (bool, error) {
	ref, ok := r.referrals[code]
	if !ok {
		return false, nil
	}
	ref.ReferredCount++
	return true, nil
}

func (r *fakeReferralRepo) AddCommission(_ context.Context, code string, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	ref, ok := r.referrals[code]
	if !ok {
		return decimal.Zero, false, nil
	}
	ref.TotalCommission = ref.TotalCommission.Add(amount)
	return ref.TotalCommission, true, nil
}

func (r *fakeReferralRepo) SetTotalCommission(_ context.Context, code string, total decimal.Decimal) error {
	r.referrals[code].TotalCommission = total
	return nil
}

func (r *fakeReferralRepo) ListCodes(_ context.Context) ([]string, error) {
	codes := make([]string, 0, len(r.referrals))
	for code := range r.referrals {
		codes = append(codes, code)
	}
	return codes, nil
}

// fakeReferredUserRepo — реализация ReferredUserRepository в памяти для тестов
type fakeReferredUserRepo struct {
	users map[string]*models.ReferredUser
}

func newFakeReferredUserRepo() *fakeReferredUserRepo {
	return &fakeReferredUserRepo{users: make(map[string]*models.ReferredUser)}
}

func signupKey(code, email string) string {
	return code + "|" + email
}

func (r *fakeReferredUserRepo) InsertSignup(_ context.Context, code, email string) (bool, error) {
	key := signupKey(code, email)
	if _, exists := r.users[key]; exists {
		return false, nil
	}
	r.users[key] = &models.ReferredUser{
		ReferralCode:  code,
		ReferredEmail: email,
		Status:        string(models.ReferredUserStatusSignedUp),
		CreatedAt:     time.Now(),
	}
	return true, nil
}

func (r *fakeReferredUserRepo) GetByCodeAndEmail(_ context.Context, code, email string) (*models.ReferredUser, error) {
	user, ok := r.users[signupKey(code, email)]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r *fakeReferredUserRepo) MarkSubscribed(_ context.Context, code, userID, plan string, commission decimal.Decimal, convertedAt time.Time) (bool, error) {
	for _, user := range r.users {
		if user.ReferralCode != code {
			continue
		}
		matchesID := user.ReferredUserID != nil && *user.ReferredUserID == userID
		if matchesID || user.ReferredEmail == userID {
			user.Status = string(models.ReferredUserStatusSubscribed)
			user.ReferredUserID = &userID
			user.Plan = &plan
			user.CommissionAmount = &commission
			user.ConvertedAt = &convertedAt
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReferredUserRepo) SumSubscribedCommission(_ context.Context, code string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, user := range r.users {
		if user.ReferralCode == code && user.Status == string(models.ReferredUserStatusSubscribed) && user.CommissionAmount != nil {
			sum = sum.Add(*user.CommissionAmount)
		}
	}
	return sum, nil
}

func newTestService(referralRepo *fakeReferralRepo, referredUserRepo *fakeReferredUserRepo) *Service {
	return NewService(referralRepo, referredUserRepo, nil, zap.NewNop())
}

func seedReferral(repo *fakeReferralRepo, code, ownerEmail string) {
	repo.referrals[code] = &models.Referral{
		ReferralCode:    code,
		OwnerEmail:      ownerEmail,
		TotalCommission: decimal.Zero,
	}
}

func TestTrackSignup(t *testing.T) {
	ctx := context.Background()

	t.Run("первая регистрация увеличивает счетчик", func(t *testing.T) {
		referralRepo := newFakeReferralRepo()
		referredUserRepo := newFakeReferredUserRepo()
		seedReferral(referralRepo, "PROMO1", "owner@example.com")
		service := newTestService(referralRepo, referredUserRepo)

		alreadyTracked, err := service.TrackSignup(ctx, "PROMO1", "friend@example.com")
		if err != nil {
			t.Fatalf("неожиданная ошибка: %v", err)
		}
		if alreadyTracked {
			t.Error("первая регистрация не должна считаться повторной")
		}
		if referralRepo.referrals["PROMO1"].ReferredCount != 1 {
			t.Errorf("ожидался счетчик 1, получен %d", referralRepo.referrals["PROMO1"].ReferredCount)
		}
	})

	t.Run("счетчик растет от текущего значения", func(t *testing.T) {
		referralRepo := newFakeReferralRepo()
		referredUserRepo := newFakeReferredUserRepo()
		seedReferral(referralRepo, "ABC123", "owner@example.com")
		referralRepo.referrals["ABC123"].ReferredCount = 3
		service := newTestService(referralRepo, referredUserRepo)

		if _, err := service.TrackSignup(ctx, "ABC123", "friend@example.com"); err != nil {
			t.Fatalf("неожиданная ошибка: %v", err)
		}
		if referralRepo.referrals["ABC123"].ReferredCount != 4 {
			t.Errorf("ожидался счетчик 4, получен %d", referralRepo.referrals["ABC123"].ReferredCount)
		}
	})

	t.Run("повторная регистрация идемпотентна", func(t *testing.T) {
		referralRepo := newFakeReferralRepo()
		referredUserRepo := newFakeReferredUserRepo()
		seedReferral(referralRepo, "PROMO1", "owner@example.com")
		service := newTestService(referralRepo, referredUserRepo)

		if _, err := service.TrackSignup(ctx, "PROMO1", "friend@example.com"); err != nil {
			t.Fatalf("неожиданная ошибка: %v", err)
		}

		alreadyTracked, err := service.TrackSignup(ctx, "PROMO1", "friend@example.com")
		if err != nil {
			t.Fatalf("неожиданная ошибка: %v", err)
		}
		if !alreadyTracked {
			t.Error("ожидался признак повторной регистрации")
		}
		if referralRepo.referrals["PROMO1"].ReferredCount != 1 {
			t.Errorf("счетчик не должен расти при повторе, получен %d", referralRepo.referrals["PROMO1"].ReferredCount)
		}
	})

	t.Run("неизвестный код возвращает NotFound", func(t *testing.T) {
		referralRepo := newFakeReferralRepo()
		referredUserRepo := newFakeReferredUserRepo()
		service := newTestService(referralRepo, referredUserRepo)

		_, err := service.TrackSignup(ctx, "UNKNOWN", "friend@example.com")
		if err == nil {
			t.Fatal("ожидалась ошибка для неизвестного кода")
		}
		appErr := apperr.From(err)
		if appErr == nil || appErr.Kind != apperr.KindNotFound {
			t.Errorf("ожидался KindNotFound, получена ошибка: %v", err)
		}

		// Запись о регистрации остается как безвредная осиротевшая строка
		user, _ := referredUserRepo.GetByCodeAndEmail(ctx, "UNKNOWN", "friend@example.com")
		if user == nil {
			t.Error("запись о регистрации должна сохраняться даже при неизвестном коде")
		}
	})
}

func TestTrackConversion(t *testing.T) {
	ctx := context.Background()

	t.Run("комиссия составляет 20 процентов", func(t *testing.T) {
		tests := []struct {
			amount     string
			commission string
		}{
			{"100", "20"},
			{"0", "0"},
			{"49", "9.8"},
			{"50.00", "9.8"},
		}

		for _, tt := range tests {
			referralRepo := newFakeReferralRepo()
			referredUserRepo := newFakeReferredUserRepo()
			seedReferral(referralRepo, "PROMO1", "owner@example.com")
			service := newTestService(referralRepo, referredUserRepo)

			amount, _ := decimal.NewFromString(tt.amount)
			want, _ := decimal.NewFromString(tt.commission)

			result, err := service.TrackConversion(ctx, "PROMO1", "user-1", "professional", amount)
			if err != nil {
				t.Fatalf("неожиданная ошибка для суммы %s: %v", tt.amount, err)
			}
			if !result.Commission.Equal(want) {
				t.Errorf("сумма %s: ожидалась комиссия %s, получена %s",
					tt.amount, want.String(), result.Commission.String())
			}
		}
	})

	t.Run("комиссия накапливается", func(t *testing.T) {
		referralRepo := newFakeReferralRepo()
		referredUserRepo := newFakeReferredUserRepo()
		seedReferral(referralRepo, "PROMO1", "owner@example.com")
		referralRepo.referrals["PROMO1"].TotalCommission = decimal.RequireFromString("50.00")
		service := newTestService(referralRepo, referredUserRepo)

		result, err := service.TrackConversion(ctx, "PROMO1", "user-1", "professional", decimal.RequireFromString("49.00"))
		if err != nil {
			t.Fatalf("неожиданная ошибка: %v", err)
		}

		want := decimal.RequireFromString("59.80")
		if !result.TotalCommission.Equal(want) {
			t.Errorf("ожидалась накопленная комиссия %s, получена %s",
				want.String(), result.TotalCommission.String())
		}
	})

	t.Run("отрицательная сумма отклоняется", func(t *testing.T) {
		referralRepo := newFakeReferralRepo()
		referredUserRepo := newFakeReferredUserRepo()
		seedReferral(referralRepo, "PROMO1", "owner@example.com")
		service := newTestService(referralRepo, referredUserRepo)

		_, err := service.TrackConversion(ctx, "PROMO1", "user-1", "professional", decimal.NewFromInt(-10))
		appErr := apperr.From(err)
		if appErr == nil || appErr.Kind != apperr.KindValidation {
			t.Errorf("ожидался KindValidation, получена ошибка: %v", err)
		}
	})

	t.Run("неизвестный код возвращает NotFound", func(t *testing.T) {
		referralRepo := newFakeReferralRepo()
		referredUserRepo := newFakeReferredUserRepo()
		service := newTestService(referralRepo, referredUserRepo)

		_, err := service.TrackConversion(ctx, "UNKNOWN", "user-1", "professional", decimal.NewFromInt(100))
		appErr := apperr.From(err)
		if appErr == nil || appErr.Kind != apperr.KindNotFound {
			t.Errorf("ожидался KindNotFound, получена ошибка: %v", err)
		}
	})

	t.Run("конверсия по email регистрации переводит в subscribed", func(t *testing.T) {
		referralRepo := newFakeReferralRepo()
		referredUserRepo := newFakeReferredUserRepo()
		seedReferral(referralRepo, "PROMO1", "owner@example.com")
		service := newTestService(referralRepo, referredUserRepo)

		if _, err := service.TrackSignup(ctx, "PROMO1", "friend@example.com"); err != nil {
			t.Fatalf("неожиданная ошибка: %v", err)
		}
		if _, err := service.TrackConversion(ctx, "PROMO1", "friend@example.com", "starter", decimal.NewFromInt(10)); err != nil {
			t.Fatalf("неожиданная ошибка: %v", err)
		}

		user, _ := referredUserRepo.GetByCodeAndEmail(ctx, "PROMO1", "friend@example.com")
		if user == nil || user.Status != string(models.ReferredUserStatusSubscribed) {
			t.Error("ожидался статус subscribed после конверсии")
		}
	})
}

func TestLookupByOwnerEmail(t *testing.T) {
	ctx := context.Background()
	referralRepo := newFakeReferralRepo()
	referredUserRepo := newFakeReferredUserRepo()
	seedReferral(referralRepo, "PROMO1", "owner@example.com")
	service := newTestService(referralRepo, referredUserRepo)

	referral, err := service.LookupByOwnerEmail(ctx, "owner@example.com")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if referral == nil || referral.ReferralCode != "PROMO1" {
		t.Error("ожидался реферал с кодом PROMO1")
	}

	// Отсутствие записи не считается ошибкой
	missing, err := service.LookupByOwnerEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if missing != nil {
		t.Error("ожидался nil для неизвестного email")
	}
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	referralRepo := newFakeReferralRepo()
	referredUserRepo := newFakeReferredUserRepo()
	seedReferral(referralRepo, "PROMO1", "owner@example.com")
	service := newTestService(referralRepo, referredUserRepo)

	if _, err := service.TrackSignup(ctx, "PROMO1", "friend@example.com"); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if _, err := service.TrackConversion(ctx, "PROMO1", "friend@example.com", "starter", decimal.NewFromInt(100)); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	// Искусственное расхождение, как после частичного сбоя
	referralRepo.referrals["PROMO1"].TotalCommission = decimal.NewFromInt(500)

	corrected, err := service.Reconcile(ctx)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if corrected != 1 {
		t.Errorf("ожидалась 1 исправленная запись, получено %d", corrected)
	}

	want := decimal.NewFromInt(20)
	if !referralRepo.referrals["PROMO1"].TotalCommission.Equal(want) {
		t.Errorf("ожидалась комиссия %s после сверки, получена %s",
			want.String(), referralRepo.referrals["PROMO1"].TotalCommission.String())
	}

	// Повторная сверка без расхождений ничего не меняет
	corrected, err = service.Reconcile(ctx)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if corrected != 0 {
		t.Errorf("ожидалось 0 исправлений, получено %d", corrected)
	}
}

func TestReconcileRevertsOrphanConversion(t *testing.T) {
	ctx := context.Background()
	referralRepo := newFakeReferralRepo()
	referredUserRepo := newFakeReferredUserRepo()
	seedReferral(referralRepo, "PROMO1", "owner@example.com")
	service := newTestService(referralRepo, referredUserRepo)

	// Конверсия без зафиксированной регистрации: комиссия начисляется,
	// но ни одна строка не переходит в subscribed
	result, err := service.TrackConversion(ctx, "PROMO1", "ghost-user", "starter", decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if !result.TotalCommission.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("ожидалась накопленная комиссия 20, получена %s", result.TotalCommission.String())
	}

	// Сверка считает сумму по subscribed авторитетной и убирает начисление
	corrected, err := service.Reconcile(ctx)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if corrected != 1 {
		t.Errorf("ожидалась 1 исправленная запись, получено %d", corrected)
	}
	if !referralRepo.referrals["PROMO1"].TotalCommission.Equal(decimal.Zero) {
		t.Errorf("ожидалась комиссия 0 после сверки, получена %s",
			referralRepo.referrals["PROMO1"].TotalCommission.String())
	}
}

func TestCommissionRate(t *testing.T) {
	if !CommissionRate().Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("ожидалась ставка 0.2, получена %s", CommissionRate().String())
	}
}
