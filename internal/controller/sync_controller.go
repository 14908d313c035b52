package controller

import (
	"practice_backend/internal/service"
	"practice_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SyncController struct {
	SyncEngine *service.SyncEngine
	Hub        *service.UpdateHub
}

func NewSyncController(engine *service.SyncEngine, hub *service.UpdateHub) *SyncController {
	return &SyncController{SyncEngine: engine, Hub: hub}
}

// @Summary 同步状态
// @Description 启动对账的结果、是否超时、订阅是否建立、最近一次远端更新时间
// @Tags 同步
// @Produce json
// @Success 200 {object} util.Response
// @Router /sync/status [get]
func (c *SyncController) Status(ctx *gin.Context) {
	util.Success(ctx, gin.H{
		"sync":    c.SyncEngine.Status(),
		"clients": c.Hub.ClientCount(),
	})
}

// @Summary 远端更新推送
// @Description WebSocket，收到 {"type":"CLOUD_UPDATE","data":{"keys":[...]}} 后界面重新拉取数据
// @Tags 同步
// @Router /ws [get]
func (c *SyncController) ServeWs(ctx *gin.Context) {
	service.ServeWs(c.Hub, ctx.Writer, ctx.Request)
}
