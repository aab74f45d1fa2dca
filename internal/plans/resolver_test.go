package plans

import (
	"testing"

	"promo-pulse/pkg/models"
)

func TestResolve(t *testing.T) {
	resolver := NewResolver()

	tests := []struct {
		name         string
		plan         string
		wantPlan     models.PlanTier
		wantCampaigns int
	}{
		{
			name:          "starter",
			plan:          "starter",
			wantPlan:      models.PlanStarter,
			wantCampaigns: 3,
		},
		{
			name:          "professional",
			plan:          "professional",
			wantPlan:      models.PlanProfessional,
			wantCampaigns: 25,
		},
		{
			name:          "enterprise без лимитов",
			plan:          "enterprise",
			wantPlan:      models.PlanEnterprise,
			wantCampaigns: -1,
		},
		{
			name:          "неизвестный план деградирует до starter",
			plan:          "gold",
			wantPlan:      models.PlanStarter,
			wantCampaigns: 3,
		},
		{
			name:          "пустой план деградирует до starter",
			plan:          "",
			wantPlan:      models.PlanStarter,
			wantCampaigns: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features := resolver.Resolve(tt.plan)

			if features.Plan != tt.wantPlan {
				t.Errorf("ожидался план %s, получен %s", tt.wantPlan, features.Plan)
			}
			if features.MaxCampaigns != tt.wantCampaigns {
				t.Errorf("ожидался лимит кампаний %d, получен %d", tt.wantCampaigns, features.MaxCampaigns)
			}
		})
	}
}

func TestResolveStarterRestrictions(t *testing.T) {
	resolver := NewResolver()
	features := resolver.Resolve("starter")

	if features.AdvancedAnalytics || features.CustomBranding || features.PrioritySupport ||
		features.APIAccess || features.TeamCollaboration {
		t.Error("starter не должен включать платные возможности")
	}
}

func TestResolveEnterpriseUnlimited(t *testing.T) {
	resolver := NewResolver()
	features := resolver.Resolve("enterprise")

	if !features.AdvancedAnalytics || !features.PrioritySupport {
		t.Error("enterprise должен включать все возможности")
	}
	if features.MaxCampaigns != -1 || features.MaxContacts != -1 {
		t.Error("enterprise должен быть без лимитов")
	}
}
