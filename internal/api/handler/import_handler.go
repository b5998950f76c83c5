package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kpcnc-co/seminar/internal/service"
	apperrors "github.com/kpcnc-co/seminar/pkg/errors"
	"github.com/kpcnc-co/seminar/pkg/response"
)

// ImportHandler 表格导入 HTTP 处理器
type ImportHandler struct {
	importSvc      service.ImportService
	maxUploadBytes int64
}

// NewImportHandler 创建 ImportHandler；maxUploadBytes <= 0 表示不限制
func NewImportHandler(importSvc service.ImportService, maxUploadBytes int64) *ImportHandler {
	return &ImportHandler{importSvc: importSvc, maxUploadBytes: maxUploadBytes}
}

// ImportFile 上传 .xlsx/.xls 文件，单条或批量写入
// POST /api/v1/import  (multipart, 字段名 file)
func (h *ImportHandler) ImportFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		rejectBinding(c, err)
		return
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, codeBodyTooLarge, "上传文件过大")
		return
	}

	f, err := fh.Open()
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c)
		return
	}
	defer f.Close()

	report, err := h.importSvc.ImportFile(c.Request.Context(), fh.Filename, f)
	if err != nil {
		h.handleImportError(c, err)
		return
	}

	response.OK(c, report)
}

func (h *ImportHandler) handleImportError(c *gin.Context, err error) {
	switch {
	case apperrors.IsImportFormat(err):
		response.BadRequest(c, 20101, err.Error())
	case errors.Is(err, service.ErrImportNoRecords):
		response.UnprocessableEntity(c, 20102, "파일에서 세미나 데이터를 찾을 수 없습니다")
	default:
		handleCommonError(c, err)
	}
}
