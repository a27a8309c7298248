package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/massiyousfi23-source/Emargement/config"
	"github.com/massiyousfi23-source/Emargement/internal/api/handler"
	"github.com/massiyousfi23-source/Emargement/internal/api/middleware"
	"github.com/massiyousfi23-source/Emargement/pkg/jwt"
	"github.com/massiyousfi23-source/Emargement/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil（不限流）；gatherer 为 /metrics 暴露的指标来源
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查与指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, cfg.Auth.LoginRateLimit, cfg.Auth.LoginWindow))
		{
			auth.POST("/login", h.Auth.Login)
		}

		// 认证开启时，以下路由需要主管 Token
		authorized := v1.Group("")
		if cfg.Auth.Enabled {
			authorized.Use(middleware.JWTAuth(jwtMgr))
		}
		{
			authorized.GET("/projects", h.Roster.ListProjects)

			// 点名册模块
			roster := authorized.Group("/roster")
			{
				roster.GET("", h.Roster.GetRoster)
				roster.GET("/summary", h.Roster.GetSummary)
				roster.POST("/members", h.Roster.AddMember)
				roster.DELETE("/members/:id", h.Roster.DeleteMember)
				roster.PATCH("/members/:id", h.Roster.UpdateField)
				roster.PUT("/members/:id/status", h.Roster.SetStatus)
				roster.POST("/mark-all-present", h.Roster.MarkAllPresent)
				roster.POST("/reset", h.Roster.ResetDay)
				roster.PUT("/project", h.Roster.SelectProject)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/excel", h.Export.ExportExcel)
				export.GET("/pdf", h.Export.ExportPDF)
			}
		}
	}

	return r
}
