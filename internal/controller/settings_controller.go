package controller

import (
	"practice_backend/internal/model"
	"practice_backend/internal/service"
	"practice_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SettingsController struct {
	SettingsService *service.SettingsService
}

func NewSettingsController(settingsService *service.SettingsService) *SettingsController {
	return &SettingsController{SettingsService: settingsService}
}

// settingsView 不向学习者界面暴露家长 PIN
type settingsView struct {
	AudioEnabled           bool `json:"audioEnabled"`
	AutoReadEnabled        bool `json:"autoReadEnabled"`
	SoundEffectsEnabled    bool `json:"soundEffectsEnabled"`
	SuggestedModuleEnabled bool `json:"suggestedModuleEnabled"`
	SessionMinutes         int  `json:"sessionMinutes"`
}

func newSettingsView(s model.Settings) settingsView {
	return settingsView{
		AudioEnabled:           s.AudioEnabled,
		AutoReadEnabled:        s.AutoReadEnabled,
		SoundEffectsEnabled:    s.SoundEffectsEnabled,
		SuggestedModuleEnabled: s.SuggestedModuleEnabled,
		SessionMinutes:         s.SessionMinutes,
	}
}

// @Summary 获取设置
// @Tags 设置
// @Produce json
// @Success 200 {object} util.Response
// @Router /settings [get]
func (c *SettingsController) Get(ctx *gin.Context) {
	settings, err := c.SettingsService.Get(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, newSettingsView(settings))
}

// @Summary 修改设置
// @Description 只修改请求中出现的字段，sessionMinutes 取值 15-45
// @Tags 设置
// @Accept json
// @Produce json
// @Param patch body model.SettingsPatch true "要修改的字段"
// @Success 200 {object} util.Response
// @Router /settings [patch]
func (c *SettingsController) Update(ctx *gin.Context) {
	var patch model.SettingsPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	settings, err := c.SettingsService.Update(ctx.Request.Context(), patch)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, newSettingsView(settings))
}
