package handler

import (
	"errors"
	"net/http"
	"strings"

	"clientdesk/internal/model"
	"clientdesk/internal/service/assignment"
	"clientdesk/internal/service/auth"
	"clientdesk/internal/service/project"
	"clientdesk/internal/service/sentiment"
	"clientdesk/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorMapping struct {
	err     error
	status  int
	message string
}

// 业务错误到 HTTP 状态码；message 为空时使用错误本身的信息
var errorMappings = []errorMapping{
	{project.ErrInvalidInput, http.StatusBadRequest, ""},
	{auth.ErrInvalidInput, http.StatusBadRequest, ""},
	{sentiment.ErrInvalidInput, http.StatusBadRequest, ""},

	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},

	{project.ErrNotFound, http.StatusNotFound, "Project not found"},
	{project.ErrTimelineItemNotFound, http.StatusNotFound, "Timeline item not found"},
	{assignment.ErrNotFound, http.StatusNotFound, "Developer or project not found"},
	{assignment.ErrAssignmentNotFound, http.StatusNotFound, "Assignment not found"},
	{sentiment.ErrNotFound, http.StatusNotFound, "No sentiment data found for this project"},
	{sentiment.ErrProjectNotFound, http.StatusNotFound, "Project not found"},

	{assignment.ErrAlreadyAssigned, http.StatusConflict, "Developer is already assigned to this project"},
	{auth.ErrEmailTaken, http.StatusConflict, "User with this email already exists"},

	{sentiment.ErrModelUnavailable, http.StatusServiceUnavailable, "Sentiment analysis is temporarily unavailable"},
}

// respondError 把业务错误转换成 {"error": ...}；未知错误记录日志后返回 500 和通用信息
func respondError(c *gin.Context, log *zap.Logger, fallback string, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = strings.TrimPrefix(err.Error(), m.err.Error()+": ")
		}
		if m.status >= http.StatusInternalServerError {
			logger.WithTrace(c.Request.Context(), log).Warn(fallback, zap.Error(err))
		}
		c.JSON(m.status, gin.H{"error": msg})
		return
	}

	logger.WithTrace(c.Request.Context(), log).Error(fallback,
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// pathID 解析路径参数，不合法时直接写 400
func pathID(c *gin.Context, name string) (model.ID, bool) {
	id, err := model.ParseID(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
