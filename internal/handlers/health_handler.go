package handlers

import (
	"net/http"

	"attachments-api/internal/services"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	health *services.HealthService
}

func NewHealthHandler(health *services.HealthService) *HealthHandler {
	return &HealthHandler{health: health}
}

func (h *HealthHandler) Check(c *gin.Context) {
	checks := h.health.Check(c.Request.Context())

	status := http.StatusOK
	for _, st := range checks {
		if st.Status != "ok" {
			status = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(status, checks)
}
