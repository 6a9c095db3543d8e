package handler

import (
	"net/http"

	"clientdesk/internal/model"
	"clientdesk/internal/service/auth"
	"clientdesk/pkg/logger"
	"clientdesk/pkg/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextKeyClaims 鉴权中间件写入 gin.Context 的 claims
const ContextKeyClaims = "claims"

type AuthHandler struct {
	svc    *auth.Service
	logger *zap.Logger
}

func NewAuthHandler(svc *auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type userView struct {
	ID    model.ID   `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

func viewOf(u *model.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var in auth.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	u, token, err := h.svc.Signup(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, "Failed to create user", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    viewOf(u),
		"token":   token,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		badRequest(c, "Email and password are required")
		return
	}

	u, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, "Login failed", err)
		return
	}

	logger.WithTrace(c.Request.Context(), h.logger).Info("User logged in", zap.Int64("user_id", int64(u.ID)))
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    viewOf(u),
		"token":   token,
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": claims})
}

// ClaimsFrom 读取鉴权中间件写入的 claims
func ClaimsFrom(c *gin.Context) (*util.UserClaims, bool) {
	v, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*util.UserClaims)
	return claims, ok
}
