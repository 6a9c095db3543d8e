package handler

import (
	"net/http"

	"clientdesk/internal/model"
	"clientdesk/internal/service/assignment"
	"clientdesk/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DeveloperHandler struct {
	svc    *assignment.Service
	logger *zap.Logger
}

func NewDeveloperHandler(svc *assignment.Service, logger *zap.Logger) *DeveloperHandler {
	return &DeveloperHandler{svc: svc, logger: logger}
}

type assignRequest struct {
	DeveloperID model.ID `json:"developerId"`
	ProjectID   model.ID `json:"projectId"`
}

// Assign handles POST /api/developers/assign
func (h *DeveloperHandler) Assign(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DeveloperID <= 0 || req.ProjectID <= 0 {
		log.Warn("Assign: invalid request", zap.Error(err))
		badRequest(c, "developerId and projectId are required")
		return
	}

	log.Info("Assigning developer",
		zap.Int64("developer_id", int64(req.DeveloperID)),
		zap.Int64("project_id", int64(req.ProjectID)),
	)

	a, err := h.svc.Assign(c.Request.Context(), req.DeveloperID, req.ProjectID)
	if err != nil {
		respondError(c, h.logger, "Failed to assign developer", err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// List handles GET /api/developers
func (h *DeveloperHandler) List(c *gin.Context) {
	devs, err := h.svc.ListDevelopers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "Failed to fetch developers", err)
		return
	}
	c.JSON(http.StatusOK, devs)
}

// Unassign handles DELETE /api/developers/assignments/:assignmentId
func (h *DeveloperHandler) Unassign(c *gin.Context) {
	id, ok := pathID(c, "assignmentId")
	if !ok {
		return
	}
	if err := h.svc.Unassign(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "Failed to remove assignment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Assignment removed successfully"})
}
