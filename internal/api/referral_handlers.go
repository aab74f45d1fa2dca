package api

import (
	"net/http"

	"promo-pulse/internal/apperr"
	"promo-pulse/internal/validate"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var signupSpec = []validate.FieldSpec{
	{Name: "referral_code", Required: true, MaxLen: 64},
	{Name: "referred_email", Required: true, MaxLen: 255, Email: true},
}

var conversionSpec = []validate.FieldSpec{
	{Name: "referral_code", Required: true, MaxLen: 64},
	{Name: "referred_user_id", Required: true, MaxLen: 128},
	{Name: "plan", Required: true, MaxLen: 32},
}

var lookupSpec = []validate.FieldSpec{
	{Name: "email", Required: true, MaxLen: 255, Email: true},
}

// TrackSignup обрабатывает регистрацию приглашенного пользователя
func (h *Handler) TrackSignup(c *gin.Context) {
	payload, decodeErr := h.decodeBody(c)
	if decodeErr != nil {
		h.respondError(c, decodeErr)
		return
	}

	record, validationErr := validate.Fields(payload, signupSpec)
	if validationErr != nil {
		h.respondError(c, validationErr)
		return
	}

	alreadyTracked, err := h.referralService.TrackSignup(c.Request.Context(),
		record["referral_code"], record["referred_email"])
	if err != nil {
		if appErr := apperr.From(err); appErr != nil && appErr.Kind == apperr.KindNotFound {
			h.metrics.RecordSignup("not_found")
		}
		h.respondError(c, err)
		return
	}

	if alreadyTracked {
		h.metrics.RecordSignup("duplicate")
	} else {
		h.metrics.RecordSignup("tracked")
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"already_tracked": alreadyTracked,
	})
}

// TrackConversion обрабатывает оплаченную конверсию приглашенного пользователя
func (h *Handler) TrackConversion(c *gin.Context) {
	payload, decodeErr := h.decodeBody(c)
	if decodeErr != nil {
		h.respondError(c, decodeErr)
		return
	}

	record, validationErr := validate.Fields(payload, conversionSpec)
	if validationErr != nil {
		h.respondError(c, validationErr)
		return
	}

	amount, amountErr := parseAmount(payload["amount"])
	if amountErr != nil {
		h.respondError(c, amountErr)
		return
	}

	result, err := h.referralService.TrackConversion(c.Request.Context(),
		record["referral_code"], record["referred_user_id"], record["plan"], amount)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.metrics.RecordConversion(result.Commission.InexactFloat64())

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"commission":       result.Commission.StringFixed(2),
		"total_commission": result.TotalCommission.StringFixed(2),
	})
}

// LookupReferral возвращает реферал по email владельца.
// Отсутствие записи — нормальный исход: 200 с null.
func (h *Handler) LookupReferral(c *gin.Context) {
	payload, decodeErr := h.decodeBody(c)
	if decodeErr != nil {
		h.respondError(c, decodeErr)
		return
	}

	record, validationErr := validate.Fields(payload, lookupSpec)
	if validationErr != nil {
		h.respondError(c, validationErr)
		return
	}

	referral, err := h.referralService.LookupByOwnerEmail(c.Request.Context(), record["email"])
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"referral": referral})
}

// parseAmount разбирает сумму из JSON: принимается число или строка,
// отрицательные значения отклоняются
func parseAmount(raw any) (decimal.Decimal, *apperr.Error) {
	invalid := apperr.Validation([]apperr.FieldError{
		{Field: "amount", Message: "must be a non-negative number"},
	})

	switch v := raw.(type) {
	case float64:
		amount := decimal.NewFromFloat(v)
		if amount.IsNegative() {
			return decimal.Zero, invalid
		}
		return amount, nil
	case string:
		amount, err := decimal.NewFromString(v)
		if err != nil || amount.IsNegative() {
			return decimal.Zero, invalid
		}
		return amount, nil
	default:
		return decimal.Zero, apperr.Validation([]apperr.FieldError{
			{Field: "amount", Message: "is required"},
		})
	}
}
