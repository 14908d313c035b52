package controller

import (
	"net/http"

	"practice_backend/internal/util"

	"github.com/gin-gonic/gin"
)

func respondError(ctx *gin.Context, err error) {
	status := util.ErrorStatus(err)
	if status == http.StatusInternalServerError {
		util.LogInternalError(ctx, err)
		return
	}
	util.Error(ctx, status, err.Error())
}
