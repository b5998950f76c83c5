package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kpcnc-co/seminar/internal/document"
	"github.com/kpcnc-co/seminar/internal/dto"
	"github.com/kpcnc-co/seminar/internal/service"
	"github.com/kpcnc-co/seminar/pkg/response"
)

// FallbackHeader 文档以打印版 HTML 返回时设置的响应头
const FallbackHeader = "X-Render-Fallback"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportExcel 导出全部计划为工作簿
// GET /api/v1/export/excel?mode=combined|per_record|full
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	var q dto.ExportExcelQuery
	if !bindQuery(c, &q) {
		return
	}

	out, err := h.exportSvc.ExportWorkbook(c.Request.Context(), service.ExportMode(q.Mode))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	h.send(c, out)
}

// ExportPlanPDF 导出실행계획文档
// GET /api/v1/export/plans/:id/pdf
func (h *ExportHandler) ExportPlanPDF(c *gin.Context) {
	out, err := h.exportSvc.ExportPlanPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	h.send(c, out)
}

// ExportResultPDF 导出실시결과文档
// GET /api/v1/export/results/pdf?session=&datetime=
func (h *ExportHandler) ExportResultPDF(c *gin.Context) {
	var q dto.KeyQuery
	if !bindQuery(c, &q) {
		return
	}

	out, err := h.exportSvc.ExportResultPDF(c.Request.Context(), q.Session, q.Datetime)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	h.send(c, out)
}

// ExportPlanICS 导出日历事件
// GET /api/v1/export/plans/:id/ics
func (h *ExportHandler) ExportPlanICS(c *gin.Context) {
	out, err := h.exportSvc.ExportPlanICS(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	h.send(c, out)
}

// send 打印版 HTML 在浏览器内打开，其余按附件下载
func (h *ExportHandler) send(c *gin.Context, out *document.Rendered) {
	if out.Fallback {
		c.Header(FallbackHeader, "html")
		response.Inline(c, out.ContentType, out.Body)
		return
	}
	response.File(c, out.ContentType, out.FileName, out.Body)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoData):
		response.NotFound(c, 20201, "내보낼 세미나 데이터가 없습니다")
	case errors.Is(err, service.ErrDatetimeUnparsable):
		response.UnprocessableEntity(c, 20202, "일시를 해석할 수 없어 일정을 만들 수 없습니다")
	case errors.Is(err, service.ErrPlanNotFound):
		response.NotFound(c, 20404, "세미나 계획을 찾을 수 없습니다")
	case errors.Is(err, service.ErrResultNotFound):
		response.NotFound(c, 20405, "세미나 실시결과를 찾을 수 없습니다")
	default:
		handleCommonError(c, err)
	}
}
