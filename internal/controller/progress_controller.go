package controller

import (
	"practice_backend/internal/model"
	"practice_backend/internal/service"
	"practice_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

type RecordAnswerRequest struct {
	Correct    *bool            `json:"correct" binding:"required"`
	QuestionID model.QuestionID `json:"questionId" binding:"required"`
}

type RecordSessionRequest struct {
	Subject  string `json:"subject" binding:"required"`
	ModuleID string `json:"moduleId" binding:"required"`
}

// @Summary 模块目录
// @Description 按科目顺序列出全部模块
// @Tags 进度
// @Produce json
// @Success 200 {object} util.Response
// @Router /modules [get]
func (c *ProgressController) ListModules(ctx *gin.Context) {
	util.Success(ctx, model.AllModules())
}

// @Summary 全部进度
// @Tags 进度
// @Produce json
// @Success 200 {object} util.Response
// @Router /progress [get]
func (c *ProgressController) GetAllProgress(ctx *gin.Context) {
	progress, err := c.ProgressService.GetAllProgress(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// @Summary 单个模块进度
// @Tags 进度
// @Produce json
// @Param subject path string true "科目"
// @Param moduleId path string true "模块"
// @Success 200 {object} util.Response
// @Router /progress/{subject}/{moduleId} [get]
func (c *ProgressController) GetModuleProgress(ctx *gin.Context) {
	progress, err := c.ProgressService.GetModuleProgress(ctx.Request.Context(), ctx.Param("subject"), ctx.Param("moduleId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// @Summary 记录一次答题
// @Description 更新掌握度、等级和星级
// @Tags 进度
// @Accept json
// @Produce json
// @Param subject path string true "科目"
// @Param moduleId path string true "模块"
// @Param answer body RecordAnswerRequest true "答题结果"
// @Success 200 {object} util.Response
// @Router /progress/{subject}/{moduleId}/answers [post]
func (c *ProgressController) RecordAnswer(ctx *gin.Context) {
	var req RecordAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	progress, err := c.ProgressService.RecordAnswer(ctx.Request.Context(), ctx.Param("subject"), ctx.Param("moduleId"), *req.Correct, req.QuestionID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// @Summary 记录错题
// @Tags 进度
// @Accept json
// @Produce json
// @Param subject path string true "科目"
// @Param moduleId path string true "模块"
// @Param record body service.WrongAnswerInput true "错题"
// @Success 201 {object} util.Response
// @Router /progress/{subject}/{moduleId}/wrong-answers [post]
func (c *ProgressController) RecordWrongAnswer(ctx *gin.Context) {
	var req service.WrongAnswerInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.QuestionID == "" {
		util.BadRequest(ctx, "questionId is required")
		return
	}

	if err := c.ProgressService.RecordWrongAnswer(ctx.Request.Context(), ctx.Param("subject"), ctx.Param("moduleId"), req); err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, nil)
}

// @Summary 记录提示使用
// @Tags 进度
// @Accept json
// @Produce json
// @Param subject path string true "科目"
// @Param moduleId path string true "模块"
// @Param record body service.HintUsageInput true "提示记录"
// @Success 201 {object} util.Response
// @Router /progress/{subject}/{moduleId}/hint-usages [post]
func (c *ProgressController) RecordHintUsage(ctx *gin.Context) {
	var req service.HintUsageInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.QuestionID == "" {
		util.BadRequest(ctx, "questionId is required")
		return
	}

	if err := c.ProgressService.RecordHintUsage(ctx.Request.Context(), ctx.Param("subject"), ctx.Param("moduleId"), req); err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, nil)
}

// @Summary 完成一次练习
// @Tags 练习
// @Accept json
// @Produce json
// @Param session body RecordSessionRequest true "科目和模块"
// @Success 201 {object} util.Response
// @Router /sessions [post]
func (c *ProgressController) RecordSession(ctx *gin.Context) {
	var req RecordSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	log, err := c.ProgressService.RecordSession(ctx.Request.Context(), req.Subject, req.ModuleID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, log)
}

// @Summary 练习记录
// @Tags 练习
// @Produce json
// @Success 200 {object} util.Response
// @Router /sessions [get]
func (c *ProgressController) GetSessions(ctx *gin.Context) {
	log, err := c.ProgressService.GetSessions(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	streak, err := c.ProgressService.CurrentStreak(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"sessions":       log,
		"calendarStreak": streak,
	})
}

// @Summary 今天是否已练习该科目
// @Tags 练习
// @Produce json
// @Param subject path string true "科目"
// @Success 200 {object} util.Response
// @Router /sessions/today/{subject} [get]
func (c *ProgressController) TodayCompleted(ctx *gin.Context) {
	done, err := c.ProgressService.TodayCompleted(ctx.Request.Context(), ctx.Param("subject"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"completed": done})
}
