package api

import (
	"net/http"

	"promo-pulse/internal/validate"
	"promo-pulse/pkg/models"

	"github.com/gin-gonic/gin"
)

var leadSpec = []validate.FieldSpec{
	{Name: "email", Required: true, MaxLen: 255, Email: true},
	{Name: "name", Required: true, MaxLen: 255},
	{Name: "company", MaxLen: 255},
	{Name: "message", MaxLen: 2000},
	{Name: "source", MaxLen: 64},
}

// CaptureLead принимает заявку с маркетинговой формы
func (h *Handler) CaptureLead(c *gin.Context) {
	payload, decodeErr := h.decodeBody(c)
	if decodeErr != nil {
		h.respondError(c, decodeErr)
		return
	}

	record, validationErr := validate.Fields(payload, leadSpec)
	if validationErr != nil {
		h.respondError(c, validationErr)
		return
	}

	lead, err := h.leadService.Capture(c.Request.Context(), &models.LeadRequest{
		Email:   record["email"],
		Name:    record["name"],
		Company: record["company"],
		Message: record["message"],
		Source:  record["source"],
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.metrics.RecordLead(lead.Source)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"lead": gin.H{
			"id":    lead.ID,
			"email": lead.Email,
		},
	})
}
