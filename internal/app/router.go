package app

import (
	"practice_backend/docs"
	"practice_backend/internal/config"
	"practice_backend/internal/middleware"
	"practice_backend/internal/util"
	"practice_backend/pkg/monitoring"
	"practice_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 学习者界面 (无需登录)
	a.registerLearnerRoutes(router, c)

	// 2. 家长接口
	a.registerParentRoutes(router, c, cfg)
}

func (a *App) registerLearnerRoutes(router *gin.Engine, c *controllers) {
	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)
		api.GET("/modules", c.progress.ListModules)

		progress := api.Group("/progress")
		{
			progress.GET("", c.progress.GetAllProgress)
			progress.GET("/:subject/:moduleId", c.progress.GetModuleProgress)
			progress.POST("/:subject/:moduleId/answers", c.progress.RecordAnswer)
			progress.POST("/:subject/:moduleId/wrong-answers", c.progress.RecordWrongAnswer)
			progress.POST("/:subject/:moduleId/hint-usages", c.progress.RecordHintUsage)
		}

		api.GET("/practice/:subject/:moduleId/questions", c.practice.SelectSessionQuestions)
		api.GET("/daily-plan", c.practice.DailyPlan)

		sessions := api.Group("/sessions")
		{
			sessions.POST("", c.progress.RecordSession)
			sessions.GET("", c.progress.GetSessions)
			sessions.GET("/today/:subject", c.progress.TodayCompleted)
		}

		api.GET("/settings", c.settings.Get)
		api.PATCH("/settings", c.settings.Update)

		api.GET("/sync/status", c.sync.Status)
		api.GET("/ws", c.sync.ServeWs)
	}
}

func (a *App) registerParentRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	parent := router.Group("/api/parent")
	parent.POST("/login", security.LoginLimiter(cfg.RateLimit.LoginAttemptsPerMinute), c.parent.Login)

	authorized := parent.Group("")
	authorized.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(util.RoleParent))
	{
		authorized.GET("/dashboard", c.parent.Dashboard)
		authorized.POST("/reset/:subject/:moduleId", c.parent.ResetModule)
		authorized.POST("/reset", c.parent.ResetAll)
		authorized.PUT("/pin", c.parent.ChangePIN)
		authorized.GET("/export", c.parent.Export)
		authorized.POST("/backup", c.parent.Backup)
		authorized.GET("/backups", c.parent.ListBackups)
		authorized.POST("/restore", c.parent.Restore)
		authorized.POST("/question-banks/:subject/:moduleId", c.parent.ImportQuestionBank)
	}
}
