package plans

import (
	"promo-pulse/pkg/models"
)

// Resolver сопоставляет название плана с неизменяемой таблицей возможностей.
// Таблица строится один раз при старте процесса и передается потребителям явно.
type Resolver struct {
	table    map[models.PlanTier]models.PlanFeatures
	fallback models.PlanTier
}

// NewResolver создает резолвер возможностей планов
func NewResolver() *Resolver {
	return &Resolver{
		fallback: models.PlanStarter,
		table: map[models.PlanTier]models.PlanFeatures{
			models.PlanStarter: {
				Plan:              models.PlanStarter,
				AdvancedAnalytics: false,
				CustomBranding:    false,
				PrioritySupport:   false,
				APIAccess:         false,
				TeamCollaboration: false,
				MaxCampaigns:      3,
				MaxContacts:       500,
			},
			models.PlanProfessional: {
				Plan:              models.PlanProfessional,
				AdvancedAnalytics: true,
				CustomBranding:    true,
				PrioritySupport:   false,
				APIAccess:         true,
				TeamCollaboration: true,
				MaxCampaigns:      25,
				MaxContacts:       10000,
			},
			models.PlanEnterprise: {
				Plan:              models.PlanEnterprise,
				AdvancedAnalytics: true,
				CustomBranding:    true,
				PrioritySupport:   true,
				APIAccess:         true,
				TeamCollaboration: true,
				MaxCampaigns:      -1,
				MaxContacts:       -1,
			},
		},
	}
}

// Resolve возвращает возможности для указанного плана.
// Неизвестные планы получают самый ограниченный уровень (starter).
func (r *Resolver) Resolve(plan string) models.PlanFeatures {
	if features, ok := r.table[models.PlanTier(plan)]; ok {
		return features
	}
	return r.table[r.fallback]
}
