package controller

import (
	"errors"
	"net/http"

	"studyhelper_backend/internal/backend"
	"studyhelper_backend/internal/service"
	"studyhelper_backend/internal/util"
	"studyhelper_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError 将服务层错误映射为 HTTP 状态码
func respondError(ctx *gin.Context, err error) {
	var validation *service.ValidationError
	var partial *service.PartialWriteError
	var both *backend.BothBackendsFailedError

	switch {
	case errors.As(err, &validation):
		util.ErrorWithData(ctx, http.StatusBadRequest, validation.Error(), gin.H{
			"field":  validation.Field,
			"reason": validation.Reason,
		})
	case errors.Is(err, util.ErrEmptyText), errors.Is(err, util.ErrUnsupportedFileType):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrDocumentNotFound),
		errors.Is(err, util.ErrQuizNotFound),
		errors.Is(err, util.ErrAttemptNotFound):
		util.NotFoundWithMessage(ctx, err.Error())
	case errors.Is(err, util.ErrAttemptChanged):
		util.Error(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, util.ErrCollaboratorMissing):
		util.ServiceUnavailable(ctx, err.Error())
	case errors.Is(err, util.ErrQuizUnavailable):
		util.ServiceUnavailable(ctx, err.Error())
	case errors.As(err, &both):
		logger.Log.Error("Storage unavailable", zap.String("path", ctx.FullPath()), zap.Error(err))
		util.ServiceUnavailable(ctx, "storage unavailable")
	case errors.As(err, &partial):
		logger.Log.Error("Partial write", zap.String("path", ctx.FullPath()), zap.Error(err))
		util.ErrorWithData(ctx, http.StatusInternalServerError, "write failed", gin.H{
			"step":        partial.Step,
			"rolled_back": partial.RolledBack,
			"compensated": partial.CompensationErr == nil,
		})
	default:
		util.LogInternalError(ctx, err)
	}
}

// pathID 解析路径中的数字 ID，失败时直接返回 400
func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, ok := util.ParseID(ctx.Param(name))
	if !ok {
		util.BadRequest(ctx, "Invalid "+name)
	}
	return id, ok
}
