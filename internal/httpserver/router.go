package httpserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"clientdesk/internal/handler"
	"clientdesk/internal/service/project"
	"clientdesk/pkg/metrics"
	"clientdesk/pkg/otel"
	"clientdesk/pkg/rbac"
	"clientdesk/pkg/trace"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger readyz 检查的依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers 路由用到的全部 handler；Admin 为 nil 时不注册 /admin
type Handlers struct {
	Project   *handler.ProjectHandler
	Developer *handler.DeveloperHandler
	Sentiment *handler.SentimentHandler
	Auth      *handler.AuthHandler
	Dashboard *handler.DashboardHandler
	Admin     *handler.AdminHandler
}

type Options struct {
	JWTSecret string
	// RequireAuth 为 true 时所有业务路由都要求 token 并按角色校验权限
	RequireAuth bool
	DB          Pinger
	// MQ 可选，readyz 同时检查连接
	MQ interface{ IsConnected() bool }
}

var registerOnce sync.Once

func registerValidators(log *zap.Logger) {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		if err := project.RegisterValidators(v); err != nil {
			log.Error("Failed to register validators", zap.Error(err))
		}
	})
}

func NewRouter(h Handlers, opts Options, log *zap.Logger) *gin.Engine {
	registerValidators(log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(trace.Middleware())
	r.Use(otel.GinMiddleware())
	r.Use(metrics.GinMiddleware())
	r.Use(requestLogger(log))

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if opts.DB != nil {
			if err := opts.DB.Ping(ctx); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"status": "db_not_ready", "error": err.Error()})
				return
			}
		}
		if opts.MQ != nil && !opts.MQ.IsConnected() {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "mq_not_ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRequired := AuthMiddleware(opts.JWTSecret)

	// guard 在 RequireAuth 打开时返回权限中间件，否则路由保持开放
	guard := func(permission string, hs ...gin.HandlerFunc) []gin.HandlerFunc {
		if !opts.RequireAuth {
			return hs
		}
		return append([]gin.HandlerFunc{RequirePermission(permission)}, hs...)
	}

	api := r.Group("/api")

	// Public
	api.POST("/submit", h.Project.Submit)
	api.POST("/auth/signup", h.Auth.Signup)
	api.POST("/auth/login", h.Auth.Login)

	// 始终需要 token
	api.GET("/auth/me", authRequired, h.Auth.Me)
	api.GET("/dashboard", authRequired, h.Dashboard.Overview)

	biz := api.Group("")
	if opts.RequireAuth {
		biz.Use(authRequired)
	}
	{
		biz.GET("/projects", guard(rbac.PermissionProjectRead, h.Project.List)...)
		biz.GET("/projects/:id", guard(rbac.PermissionProjectRead, h.Project.Get)...)
		biz.DELETE("/projects/:id", guard(rbac.PermissionProjectDelete, h.Project.Delete)...)
		biz.PUT("/projects/:id/status", guard(rbac.PermissionProjectUpdate, h.Project.UpdateStatus)...)
		biz.GET("/projects/:id/notes", guard(rbac.PermissionProjectRead, h.Project.ListNotes)...)
		biz.POST("/projects/:id/notes", guard(rbac.PermissionNoteWrite, h.Project.AddNote)...)
		biz.GET("/projects/:id/timeline", guard(rbac.PermissionProjectRead, h.Project.ListTimeline)...)
		biz.POST("/projects/:id/timeline", guard(rbac.PermissionTimelineWrite, h.Project.AddTimelineItem)...)
		biz.PUT("/projects/:id/timeline/:taskId", guard(rbac.PermissionTimelineWrite, h.Project.UpdateTimelineItem)...)
		biz.GET("/projects/assigned/:developerId", guard(rbac.PermissionProjectRead, h.Project.ListAssigned)...)
		biz.GET("/developers/:developerId/projects", guard(rbac.PermissionProjectRead, h.Project.ListAssigned)...)

		biz.POST("/developers/assign", guard(rbac.PermissionAssignmentManage, h.Developer.Assign)...)
		biz.GET("/developers", guard(rbac.PermissionDeveloperRead, h.Developer.List)...)
		biz.GET("/users/developers", guard(rbac.PermissionDeveloperRead, h.Developer.List)...)
		biz.DELETE("/developers/assignments/:assignmentId", guard(rbac.PermissionAssignmentManage, h.Developer.Unassign)...)

		biz.POST("/ai/sentiment", guard(rbac.PermissionSentimentAnalyze, h.Sentiment.Analyze)...)
		biz.POST("/ai/sentiment/generate-all", guard(rbac.PermissionSentimentGenerate, h.Sentiment.GenerateAll)...)
		biz.GET("/ai/sentiment/:projectId", guard(rbac.PermissionProjectRead, h.Sentiment.Get)...)
	}

	if h.Admin != nil {
		admin := r.Group("/admin", authRequired, RequirePermission(rbac.PermissionOutboxReplay))
		admin.POST("/outbox/replay", h.Admin.ReplayOutboxEvent)
		admin.POST("/outbox/replay-failed", h.Admin.ReplayFailedEvents)
	}

	return r
}
