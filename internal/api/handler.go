package api

import (
	"context"
	"encoding/json"
	"net/http"

	"promo-pulse/internal/ai"
	"promo-pulse/internal/apperr"
	"promo-pulse/internal/leads"
	"promo-pulse/internal/metrics"
	"promo-pulse/internal/plans"
	"promo-pulse/internal/referral"
	"promo-pulse/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Geocoder интерфейс прямого геокодинга
type Geocoder interface {
	Forward(ctx context.Context, query string) (json.RawMessage, error)
}

// Handler содержит все HTTP-обработчики API
type Handler struct {
	referralService  *referral.Service
	leadService      *leads.Service
	planResolver     *plans.Resolver
	subscriptionRepo store.SubscriptionRepository
	chatClient       ai.ChatClient
	geoClient        Geocoder
	metrics          *metrics.Metrics
	logger           *zap.Logger
}

// NewHandler создает новый набор HTTP-обработчиков
func NewHandler(
	referralService *referral.Service,
	leadService *leads.Service,
	planResolver *plans.Resolver,
	subscriptionRepo store.SubscriptionRepository,
	chatClient ai.ChatClient,
	geoClient Geocoder,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		referralService:  referralService,
		leadService:      leadService,
		planResolver:     planResolver,
		subscriptionRepo: subscriptionRepo,
		chatClient:       chatClient,
		geoClient:        geoClient,
		metrics:          m,
		logger:           logger,
	}
}

// decodeBody разбирает JSON тело запроса в произвольный объект.
// Некорректный JSON — ошибка валидации, не паника.
func (h *Handler) decodeBody(c *gin.Context) (map[string]any, *apperr.Error) {
	var payload map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&payload); err != nil {
		return nil, apperr.Validation([]apperr.FieldError{
			{Field: "body", Message: "must be a valid JSON object"},
		})
	}
	return payload, nil
}

// respondError преобразует классифицированную ошибку в HTTP-ответ.
// Неклассифицированные ошибки отдаются как 500 с общим сообщением,
// детали остаются только в логах сервера.
func (h *Handler) respondError(c *gin.Context, err error) {
	if appErr := apperr.From(err); appErr != nil {
		body := gin.H{"error": appErr.Message}
		if appErr.Kind == apperr.KindValidation {
			body["details"] = appErr.Fields
		}
		if appErr.Kind == apperr.KindUpstream {
			h.logger.Error("сбой внешнего API",
				zap.Int("upstream_status", appErr.UpstreamStatus),
				zap.Error(appErr))
		}
		c.JSON(appErr.HTTPStatus(), body)
		return
	}

	h.logger.Error("необработанная ошибка запроса",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
