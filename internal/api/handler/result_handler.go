package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kpcnc-co/seminar/internal/dto"
	"github.com/kpcnc-co/seminar/internal/model"
	"github.com/kpcnc-co/seminar/internal/service"
	"github.com/kpcnc-co/seminar/pkg/response"
)

// ResultHandler 실시결과与현장 스케치 HTTP 处理器
type ResultHandler struct {
	seminarSvc service.SeminarService
}

// NewResultHandler 创建 ResultHandler
func NewResultHandler(seminarSvc service.SeminarService) *ResultHandler {
	return &ResultHandler{seminarSvc: seminarSvc}
}

// FindResult 按复合键查找实施结果
// GET /api/v1/results?session=&datetime=
func (h *ResultHandler) FindResult(c *gin.Context) {
	var q dto.KeyQuery
	if !bindQuery(c, &q) {
		return
	}

	result, err := h.seminarSvc.FindResultByKey(c.Request.Context(), q.Session, q.Datetime)
	if err != nil {
		h.handleResultError(c, err)
		return
	}
	if result == nil {
		h.handleResultError(c, service.ErrResultNotFound)
		return
	}

	response.OK(c, dto.ToResultResponse(result))
}

// UpsertResult 按复合键保存实施结果
// PUT /api/v1/results
func (h *ResultHandler) UpsertResult(c *gin.Context) {
	var req dto.UpsertResultRequest
	if !bindJSON(c, &req) {
		return
	}

	outcome, err := h.seminarSvc.UpsertResult(c.Request.Context(), &req.SeminarResult)
	if err != nil {
		h.handleResultError(c, err)
		return
	}

	if outcome.Action == service.ActionCreated {
		response.Created(c, outcome)
		return
	}
	response.OK(c, outcome)
}

// ── 현장 스케치 ──

// AddSketch 追加照片（实施结果不存在时一并创建）
// POST /api/v1/results/sketches
func (h *ResultHandler) AddSketch(c *gin.Context) {
	var req dto.AddSketchRequest
	if !bindJSON(c, &req) {
		return
	}

	sketch, err := h.seminarSvc.AddSketch(c.Request.Context(), req.Session, req.Datetime, model.Sketch{
		Title:     req.Title,
		ImageData: req.ImageData,
		FileName:  req.FileName,
	})
	if err != nil {
		h.handleResultError(c, err)
		return
	}

	response.Created(c, sketch)
}

// UpdateSketch 部分更新照片
// PUT /api/v1/results/sketches/:sketch_id
func (h *ResultHandler) UpdateSketch(c *gin.Context) {
	var req dto.UpdateSketchRequest
	if !bindJSON(c, &req) {
		return
	}

	sketch, err := h.seminarSvc.UpdateSketch(c.Request.Context(), req.Session, req.Datetime, c.Param("sketch_id"), service.SketchPatch{
		Title:     req.Title,
		ImageData: req.ImageData,
		FileName:  req.FileName,
	})
	if err != nil {
		h.handleResultError(c, err)
		return
	}

	response.OK(c, sketch)
}

// RemoveSketch 删除照片
// DELETE /api/v1/results/sketches/:sketch_id?session=&datetime=
func (h *ResultHandler) RemoveSketch(c *gin.Context) {
	var q dto.KeyQuery
	if !bindQuery(c, &q) {
		return
	}

	if err := h.seminarSvc.RemoveSketch(c.Request.Context(), q.Session, q.Datetime, c.Param("sketch_id")); err != nil {
		h.handleResultError(c, err)
		return
	}

	response.OK(c, nil)
}

// ReorderSketches 调整照片顺序
// PUT /api/v1/results/sketches/order
func (h *ResultHandler) ReorderSketches(c *gin.Context) {
	var req dto.ReorderSketchesRequest
	if !bindJSON(c, &req) {
		return
	}

	sketches, err := h.seminarSvc.ReorderSketches(c.Request.Context(), req.Session, req.Datetime, req.IDs)
	if err != nil {
		h.handleResultError(c, err)
		return
	}

	response.OK(c, gin.H{"list": sketches})
}

func (h *ResultHandler) handleResultError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrResultNotFound):
		response.NotFound(c, 20405, "세미나 실시결과를 찾을 수 없습니다")
	case errors.Is(err, service.ErrSketchNotFound):
		response.NotFound(c, 20406, "스케치를 찾을 수 없습니다")
	default:
		handleCommonError(c, err)
	}
}
