package handler

import (
	"net/http"

	"clientdesk/internal/service/sentiment"
	"clientdesk/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SentimentHandler struct {
	svc    *sentiment.Service
	logger *zap.Logger
}

func NewSentimentHandler(svc *sentiment.Service, logger *zap.Logger) *SentimentHandler {
	return &SentimentHandler{svc: svc, logger: logger}
}

// Analyze handles POST /api/ai/sentiment
func (h *SentimentHandler) Analyze(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	var in sentiment.AnalyzeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		log.Warn("Analyze: invalid request", zap.Error(err))
		badRequest(c, "projectId, clientName and messages are required")
		return
	}

	log.Info("Analyzing sentiment",
		zap.Int64("project_id", int64(in.ProjectID)),
		zap.Int("messages", len(in.Messages)),
	)

	rec, err := h.svc.Analyze(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, "Failed to analyze sentiment", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Get handles GET /api/ai/sentiment/:projectId
func (h *SentimentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "projectId")
	if !ok {
		return
	}
	rec, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "Failed to fetch sentiment data", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GenerateAll handles POST /api/ai/sentiment/generate-all
func (h *SentimentHandler) GenerateAll(c *gin.Context) {
	res, err := h.svc.GenerateAll(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "Failed to generate sentiment data", err)
		return
	}

	logger.WithTrace(c.Request.Context(), h.logger).Info("Generated sentiment data",
		zap.Int("generated", res.Generated),
		zap.Int("projects", len(res.Results)),
	)
	c.JSON(http.StatusOK, gin.H{
		"message":   "Sentiment generation completed",
		"generated": res.Generated,
		"results":   res.Results,
	})
}
