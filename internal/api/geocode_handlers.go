package api

import (
	"net/http"

	"promo-pulse/internal/validate"

	"github.com/gin-gonic/gin"
)

var geocodeSpec = []validate.FieldSpec{
	{Name: "query", Required: true, MaxLen: 256},
}

// Geocode проксирует прямой геокодинг, отдавая ответ апстрима как есть
func (h *Handler) Geocode(c *gin.Context) {
	payload, decodeErr := h.decodeBody(c)
	if decodeErr != nil {
		h.respondError(c, decodeErr)
		return
	}

	record, validationErr := validate.Fields(payload, geocodeSpec)
	if validationErr != nil {
		h.respondError(c, validationErr)
		return
	}

	body, err := h.geoClient.Forward(c.Request.Context(), record["query"])
	if err != nil {
		h.metrics.RecordUpstream("geocode", false)
		h.respondError(c, err)
		return
	}
	h.metrics.RecordUpstream("geocode", true)

	c.Data(http.StatusOK, "application/json", body)
}
