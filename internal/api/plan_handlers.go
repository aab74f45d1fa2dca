package api

import (
	"net/http"

	"promo-pulse/internal/validate"

	"github.com/gin-gonic/gin"
)

var planSpec = []validate.FieldSpec{
	{Name: "plan", MaxLen: 32},
	{Name: "user_id", MaxLen: 128},
}

// ResolvePlanFeatures возвращает таблицу возможностей плана.
// План берется из запроса либо из активной подписки пользователя,
// при отсутствии того и другого действует самый ограниченный уровень.
func (h *Handler) ResolvePlanFeatures(c *gin.Context) {
	payload, decodeErr := h.decodeBody(c)
	if decodeErr != nil {
		h.respondError(c, decodeErr)
		return
	}

	record, validationErr := validate.Fields(payload, planSpec)
	if validationErr != nil {
		h.respondError(c, validationErr)
		return
	}

	plan := record["plan"]
	if plan == "" && record["user_id"] != "" {
		activePlan, found, err := h.subscriptionRepo.GetActivePlan(c.Request.Context(), record["user_id"])
		if err != nil {
			h.respondError(c, err)
			return
		}
		if found {
			plan = activePlan
		}
	}

	features := h.planResolver.Resolve(plan)

	c.JSON(http.StatusOK, gin.H{"features": features})
}
