package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kpcnc-co/seminar/internal/api/middleware"
	apperrors "github.com/kpcnc-co/seminar/pkg/errors"
	"github.com/kpcnc-co/seminar/pkg/response"
)

// ── 通用错误码 ──
const (
	codeBadRequest   = 10001
	codeBodyTooLarge = 10005
	codeValidation   = 20001
	codeStorage      = 20003
)

// bindJSON 解析 JSON 请求体；失败时写入 400（超限时 413），调用方在 false 时直接 return
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		rejectBinding(c, err)
		return false
	}
	return true
}

// bindQuery 解析查询参数
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		rejectBinding(c, err)
		return false
	}
	return true
}

func rejectBinding(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, codeBodyTooLarge, "请求体过大")
		c.Abort()
		return
	}
	response.BadRequest(c, codeBadRequest, "参数校验失败")
}

// handleCommonError 处理各模块共有的错误类型：校验失败、存储不可用
func handleCommonError(c *gin.Context, err error) {
	var ve *apperrors.ValidationError
	switch {
	case errors.As(err, &ve):
		response.BadRequest(c, codeValidation, ve.Error())
	case apperrors.IsStorage(err):
		response.ServiceUnavailable(c, codeStorage, "存储服务不可用", err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
