package handler

import (
	"net/http"
	"time"

	"clientdesk/internal/model"
	"clientdesk/internal/service/project"
	"clientdesk/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	svc    *project.Service
	logger *zap.Logger
}

func NewProjectHandler(svc *project.Service, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, logger: logger}
}

// Submit handles POST /api/submit
func (h *ProjectHandler) Submit(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	var in model.Inquiry
	if err := c.ShouldBindJSON(&in); err != nil {
		log.Warn("Submit: invalid inquiry", zap.String("client_ip", c.ClientIP()), zap.Error(err))
		badRequest(c, project.ValidationMessage(err))
		return
	}

	p, err := h.svc.Submit(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, "Failed to submit inquiry", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Inquiry submitted successfully",
		"inquiry": p,
	})
}

// List handles GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "Failed to fetch projects", err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// Get handles GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "Failed to fetch project", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "Failed to delete project", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Project deleted successfully",
		"deletedProject": p,
	})
}

// UpdateStatus handles PUT /api/projects/:id/status
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}

	p, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, h.logger, "Failed to update project status", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListNotes handles GET /api/projects/:id/notes
func (h *ProjectHandler) ListNotes(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	notes, err := h.svc.ListNotes(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "Failed to fetch project notes", err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

// AddNote handles POST /api/projects/:id/notes
func (h *ProjectHandler) AddNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	n, err := h.svc.AddNote(c.Request.Context(), id, req.Content)
	if err != nil {
		respondError(c, h.logger, "Failed to add project note", err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

// ListTimeline handles GET /api/projects/:id/timeline
func (h *ProjectHandler) ListTimeline(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	items, err := h.svc.ListTimeline(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "Failed to fetch project timeline", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// AddTimelineItem handles POST /api/projects/:id/timeline
func (h *ProjectHandler) AddTimelineItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title       string     `json:"title"`
		Description *string    `json:"description"`
		Date        *time.Time `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	item, err := h.svc.AddTimelineItem(c.Request.Context(), id, project.TimelineInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		respondError(c, h.logger, "Failed to add project timeline item", err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateTimelineItem handles PUT /api/projects/:id/timeline/:taskId
func (h *ProjectHandler) UpdateTimelineItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}

	item, err := h.svc.UpdateTimelineItem(c.Request.Context(), id, taskID, req.Status)
	if err != nil {
		respondError(c, h.logger, "Failed to update project timeline item", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ListAssigned handles GET /api/projects/assigned/:developerId
func (h *ProjectHandler) ListAssigned(c *gin.Context) {
	devID, ok := pathID(c, "developerId")
	if !ok {
		return
	}
	projects, err := h.svc.ListAssigned(c.Request.Context(), devID)
	if err != nil {
		respondError(c, h.logger, "Failed to fetch assigned projects", err)
		return
	}
	c.JSON(http.StatusOK, projects)
}
