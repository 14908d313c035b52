package controller

import (
	"practice_backend/internal/service"
	"practice_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ParentController 家长看板，除登录外都需要家长令牌
type ParentController struct {
	SettingsService *service.SettingsService
	ProgressService *service.ProgressService
	ReportService   *service.ReportService
	BackupService   *service.BackupService
	ImportService   *service.QuestionImportService
}

func NewParentController(
	settingsService *service.SettingsService,
	progressService *service.ProgressService,
	reportService *service.ReportService,
	backupService *service.BackupService,
	importService *service.QuestionImportService,
) *ParentController {
	return &ParentController{
		SettingsService: settingsService,
		ProgressService: progressService,
		ReportService:   reportService,
		BackupService:   backupService,
		ImportService:   importService,
	}
}

type PINRequest struct {
	PIN string `json:"pin" binding:"required"`
}

type RestoreRequest struct {
	Name string `json:"name" binding:"required"`
}

// @Summary 家长登录
// @Description 校验 4 位 PIN 并签发令牌
// @Tags 家长
// @Accept json
// @Produce json
// @Param pin body PINRequest true "PIN"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response
// @Router /parent/login [post]
func (c *ParentController) Login(ctx *gin.Context) {
	var req PINRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, expiresAt, err := c.SettingsService.VerifyParentPIN(ctx.Request.Context(), req.PIN)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"token": token, "expiresAt": expiresAt})
}

// @Summary 家长看板
// @Tags 家长
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /parent/dashboard [get]
func (c *ParentController) Dashboard(ctx *gin.Context) {
	dashboard, err := c.ReportService.Dashboard(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, dashboard)
}

// @Summary 重置单个模块
// @Description 恢复默认进度，并删除该模块的错题和提示记录
// @Tags 家长
// @Produce json
// @Security ApiKeyAuth
// @Param subject path string true "科目"
// @Param moduleId path string true "模块"
// @Success 200 {object} util.Response
// @Router /parent/reset/{subject}/{moduleId} [post]
func (c *ParentController) ResetModule(ctx *gin.Context) {
	if err := c.ProgressService.ResetModule(ctx.Request.Context(), ctx.Param("subject"), ctx.Param("moduleId")); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 重置全部进度
// @Tags 家长
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /parent/reset [post]
func (c *ParentController) ResetAll(ctx *gin.Context) {
	if err := c.ProgressService.ResetAll(ctx.Request.Context()); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 修改家长 PIN
// @Tags 家长
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param pin body PINRequest true "新 PIN"
// @Success 200 {object} util.Response
// @Router /parent/pin [put]
func (c *ParentController) ChangePIN(ctx *gin.Context) {
	var req PINRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.SettingsService.ChangeParentPIN(ctx.Request.Context(), req.PIN); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 导出全部数据
// @Tags 家长
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /parent/export [get]
func (c *ParentController) Export(ctx *gin.Context) {
	snapshot, err := c.BackupService.Snapshot(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, snapshot)
}

// @Summary 立即备份
// @Tags 家长
// @Produce json
// @Security ApiKeyAuth
// @Success 201 {object} util.Response
// @Router /parent/backup [post]
func (c *ParentController) Backup(ctx *gin.Context) {
	name, err := c.BackupService.Backup(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"name": name})
}

// @Summary 备份列表
// @Tags 家长
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /parent/backups [get]
func (c *ParentController) ListBackups(ctx *gin.Context) {
	names, err := c.BackupService.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, names)
}

// @Summary 从备份恢复
// @Tags 家长
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param backup body RestoreRequest true "备份名"
// @Success 200 {object} util.Response
// @Router /parent/restore [post]
func (c *ParentController) Restore(ctx *gin.Context) {
	var req RestoreRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.BackupService.Restore(ctx.Request.Context(), req.Name); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 导入题库
// @Description 上传 xlsx，第一行为表头 (id, level, type, question, options, answer, hint, passage)
// @Tags 家长
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param subject path string true "科目"
// @Param moduleId path string true "模块"
// @Param file formData file true "xlsx 文件"
// @Param sheet formData string false "工作表名"
// @Success 200 {object} util.Response
// @Router /parent/question-banks/{subject}/{moduleId} [post]
func (c *ParentController) ImportQuestionBank(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	file, err := util.OpenWorkbookUpload(fileHeader)
	if err != nil {
		respondError(ctx, err)
		return
	}
	defer file.Close()

	result, err := c.ImportService.ImportReader(file, ctx.Param("subject"), ctx.Param("moduleId"), ctx.PostForm("sheet"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
