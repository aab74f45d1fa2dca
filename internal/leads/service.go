package leads

import (
	"context"
	"fmt"

	"promo-pulse/internal/store"
	"promo-pulse/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier отправляет уведомления администраторам о новых лидах
type Notifier interface {
	LeadCaptured(email, name, source string)
}

// Service представляет сервис захвата лидов
type Service struct {
	leadRepo store.LeadRepository
	notifier Notifier
	logger   *zap.Logger
}

// NewService создает новый сервис лидов
func NewService(leadRepo store.LeadRepository, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		leadRepo: leadRepo,
		notifier: notifier,
		logger:   logger,
	}
}

// Capture сохраняет лида. Повторная отправка формы с тем же email
// обновляет контактные поля вместо создания дубликата.
func (s *Service) Capture(ctx context.Context, req *models.LeadRequest) (*models.Lead, error) {
	lead := &models.Lead{
		ID:      uuid.New(),
		Email:   req.Email,
		Name:    req.Name,
		Company: req.Company,
		Message: req.Message,
		Source:  req.Source,
	}
	if lead.Source == "" {
		lead.Source = "website"
	}

	if err := s.leadRepo.Upsert(ctx, lead); err != nil {
		return nil, fmt.Errorf("ошибка сохранения лида: %w", err)
	}

	if s.notifier != nil {
		s.notifier.LeadCaptured(lead.Email, lead.Name, lead.Source)
	}

	return lead, nil
}
