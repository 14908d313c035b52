package controller

import (
	"practice_backend/internal/service"
	"practice_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PracticeController struct {
	PracticeService  *service.PracticeService
	DailyPlanService *service.DailyPlanService
}

func NewPracticeController(practiceService *service.PracticeService, dailyPlanService *service.DailyPlanService) *PracticeController {
	return &PracticeController{PracticeService: practiceService, DailyPlanService: dailyPlanService}
}

// @Summary 组一套练习题
// @Description 热身题在前，练习题在后，题目不重复
// @Tags 练习
// @Produce json
// @Param subject path string true "科目"
// @Param moduleId path string true "模块"
// @Success 200 {object} util.Response
// @Router /practice/{subject}/{moduleId}/questions [get]
func (c *PracticeController) SelectSessionQuestions(ctx *gin.Context) {
	session, err := c.PracticeService.SelectSessionQuestions(ctx.Request.Context(), ctx.Param("subject"), ctx.Param("moduleId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// @Summary 今日计划
// @Description 两个需要练习的模块加一个擅长的模块
// @Tags 练习
// @Produce json
// @Success 200 {object} util.Response
// @Router /daily-plan [get]
func (c *PracticeController) DailyPlan(ctx *gin.Context) {
	plan, err := c.DailyPlanService.Build(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, plan)
}
