package controller

import (
	"net/http"

	"practice_backend/internal/service"
	"practice_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	DB         *gorm.DB
	SyncEngine *service.SyncEngine
}

func NewHealthController(db *gorm.DB, engine *service.SyncEngine) *HealthController {
	return &HealthController{DB: db, SyncEngine: engine}
}

// @Summary 健康检查
// @Description 本地存储必须可用；同步只报告状态，不影响健康
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	if err := sqlDB.PingContext(ctx.Request.Context()); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	status := c.SyncEngine.Status()
	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"database":   "up",
			"sync":       status.State,
			"subscribed": status.Subscribed,
		},
	})
}
