package handler

import (
	"net/http"

	"clientdesk/internal/model"
	"clientdesk/internal/service/dashboard"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	svc    *dashboard.Service
	logger *zap.Logger
}

func NewDashboardHandler(svc *dashboard.Service, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: logger}
}

// Overview handles GET /api/dashboard
func (h *DashboardHandler) Overview(c *gin.Context) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
		return
	}
	role, err := model.ParseRole(claims.Role)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid or expired token"})
		return
	}

	ov, err := h.svc.Overview(c.Request.Context(), model.ID(claims.UserID), role)
	if err != nil {
		respondError(c, h.logger, "Failed to load dashboard", err)
		return
	}
	c.JSON(http.StatusOK, ov)
}
