package models

// PlanTier представляет уровень подписки
type PlanTier string

const (
	PlanStarter      PlanTier = "starter"
	PlanProfessional PlanTier = "professional"
	PlanEnterprise   PlanTier = "enterprise"
)

// IsValid проверяет валидность уровня подписки
func (p PlanTier) IsValid() bool {
	switch p {
	case PlanStarter, PlanProfessional, PlanEnterprise:
		return true
	default:
		return false
	}
}

// PlanFeatures представляет набор возможностей уровня подписки.
// Лимиты со значением -1 означают "без ограничений".
type PlanFeatures struct {
	Plan              PlanTier `json:"plan"`
	AdvancedAnalytics bool     `json:"advanced_analytics"`
	CustomBranding    bool     `json:"custom_branding"`
	PrioritySupport   bool     `json:"priority_support"`
	APIAccess         bool     `json:"api_access"`
	TeamCollaboration bool     `json:"team_collaboration"`
	MaxCampaigns      int      `json:"max_campaigns"`
	MaxContacts       int      `json:"max_contacts"`
}

// Subscription представляет активную подписку арендатора (читается, не изменяется)
type Subscription struct {
	UserID string   `json:"user_id" db:"user_id"`
	Plan   PlanTier `json:"plan" db:"plan"`
	Status string   `json:"status" db:"status"`
}
