package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"thesis-hub/backend/config"
	"thesis-hub/backend/internal/api/handler"
	"thesis-hub/backend/internal/api/middleware"
	"thesis-hub/backend/pkg/jwt"
)

const defaultBodyLimit = 1 << 20

// Setup 初始化并返回 Gin 路由引擎，limiter 为 nil 时不限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, limiter middleware.RateLimiter, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok"}
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, status)
	})

	admin := middleware.RoleAuth(jwt.RoleAdmin)
	advisorOrAdmin := middleware.RoleAuth(jwt.RoleAdvisor, jwt.RoleAdmin)
	studentOrAdmin := middleware.RoleAuth(jwt.RoleStudent, jwt.RoleAdmin)
	voteLimit := middleware.RateLimit(limiter, cfg.RateLimit.VoteLimit, cfg.RateLimit.VoteWindow, logger)

	// ── API v1（全部需要认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		// 学生模块
		students := v1.Group("/students")
		students.Use(middleware.BodyLimit(defaultBodyLimit))
		{
			students.POST("", admin, h.Student.CreateStudent)
			students.GET("", h.Student.ListStudents)
			students.GET("/:id", h.Student.GetStudent)

			// 开题（学生本人或管理员，Handler 层校验本人）
			students.POST("/:id/proposals", studentOrAdmin, h.Proposal.SubmitProposal)
			students.GET("/:id/proposals", h.Proposal.ListProposals)

			// 选择导师
			students.POST("/:id/advisor", studentOrAdmin, h.Selection.ChooseAdvisor)

			// 论文状态与答辩投票
			students.PUT("/:id/manuscript-status", advisorOrAdmin, h.Manuscript.SetStatus)
			students.POST("/:id/votes", middleware.RoleAuth(jwt.RoleAdvisor), voteLimit, h.Manuscript.CastVote)
			students.GET("/:id/votes", h.Manuscript.GetVotes)
			students.DELETE("/:id/votes", advisorOrAdmin, h.Manuscript.ResetVotes)
		}

		// 导师答复
		v1.POST("/advisor-requests/:studentId/respond",
			middleware.BodyLimit(defaultBodyLimit),
			middleware.RoleAuth(jwt.RoleAdvisor),
			h.Selection.Respond,
		)

		// 导师模块
		advisors := v1.Group("/advisors")
		{
			advisors.GET("", h.Advisor.ListAdvisors)
			advisors.GET("/:id", h.Advisor.GetAdvisor)
			advisors.POST("", middleware.BodyLimit(defaultBodyLimit), admin, h.Advisor.CreateAdvisor)
			advisors.PUT("/:id", middleware.BodyLimit(defaultBodyLimit), admin, h.Advisor.UpdateAdvisor)
			advisors.POST("/import", admin, h.Advisor.ImportAdvisors) // 上传大小由 import.max_upload_bytes 控制
		}

		// 同义词模块
		synonyms := v1.Group("/synonyms")
		synonyms.Use(middleware.BodyLimit(defaultBodyLimit))
		{
			synonyms.GET("", h.Synonym.ListSynonyms)
			synonyms.GET("/expand", h.Synonym.Expand)
			synonyms.POST("", admin, h.Synonym.CreateSynonym)
			synonyms.DELETE("/:id", admin, h.Synonym.DeleteSynonym)
		}
	}

	return r
}
