package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Referral представляет партнерскую запись владельца реферального кода
type Referral struct {
	ID              int64           `json:"id" db:"id"`
	ReferralCode    string          `json:"referral_code" db:"referral_code"`
	OwnerEmail      string          `json:"owner_email" db:"owner_email"`
	ReferredCount   int             `json:"referred_count" db:"referred_count"`
	TotalCommission decimal.Decimal `json:"total_commission" db:"total_commission"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// ReferredUser представляет приглашенного пользователя
type ReferredUser struct {
	ID               int64            `json:"id" db:"id"`
	ReferralCode     string           `json:"referral_code" db:"referral_code"`
	ReferredEmail    string           `json:"referred_email" db:"referred_email"`
	ReferredUserID   *string          `json:"referred_user_id,omitempty" db:"referred_user_id"`
	Status           string           `json:"status" db:"status"`
	Plan             *string          `json:"plan,omitempty" db:"plan"`
	CommissionAmount *decimal.Decimal `json:"commission_amount,omitempty" db:"commission_amount"`
	ConvertedAt      *time.Time       `json:"converted_at,omitempty" db:"converted_at"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

// ReferredUserStatus представляет статус приглашенного пользователя
type ReferredUserStatus string

const (
	ReferredUserStatusSignedUp   ReferredUserStatus = "signed_up"
	ReferredUserStatusSubscribed ReferredUserStatus = "subscribed"
)

// IsValid проверяет валидность статуса приглашенного пользователя
func (s ReferredUserStatus) IsValid() bool {
	switch s {
	case ReferredUserStatusSignedUp, ReferredUserStatusSubscribed:
		return true
	default:
		return false
	}
}

// ConversionResult представляет результат обработки конверсии
type ConversionResult struct {
	ReferralCode    string          `json:"referral_code"`
	Commission      decimal.Decimal `json:"commission"`
	TotalCommission decimal.Decimal `json:"total_commission"`
}
