package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kpcnc-co/seminar/internal/dto"
	"github.com/kpcnc-co/seminar/internal/service"
	"github.com/kpcnc-co/seminar/pkg/response"
)

// SeminarHandler 세미나 计划模块 HTTP 处理器
type SeminarHandler struct {
	seminarSvc service.SeminarService
}

// NewSeminarHandler 创建 SeminarHandler
func NewSeminarHandler(seminarSvc service.SeminarService) *SeminarHandler {
	return &SeminarHandler{seminarSvc: seminarSvc}
}

// ListPlans 获取计划列表（按일시倒序）
// GET /api/v1/seminars
func (h *SeminarHandler) ListPlans(c *gin.Context) {
	var page dto.PaginationRequest
	if !bindQuery(c, &page) {
		return
	}

	entries, err := h.seminarSvc.ListPlans(c.Request.Context())
	if err != nil {
		h.handleSeminarError(c, err)
		return
	}

	list := dto.ToPlanList(dto.Window(entries, &page))
	response.OKPage(c, list, int64(len(entries)), page.GetPage(), page.GetPageSize())
}

// Lookup 按회차 + 일시查找计划及其实施结果
// GET /api/v1/seminars/lookup?session=&datetime=
func (h *SeminarHandler) Lookup(c *gin.Context) {
	var q dto.KeyQuery
	if !bindQuery(c, &q) {
		return
	}

	ctx := c.Request.Context()
	plan, err := h.seminarSvc.FindByKey(ctx, q.Session, q.Datetime)
	if err != nil {
		h.handleSeminarError(c, err)
		return
	}
	result, err := h.seminarSvc.FindResultByKey(ctx, q.Session, q.Datetime)
	if err != nil {
		h.handleSeminarError(c, err)
		return
	}

	response.OK(c, dto.LookupResponse{
		Plan:   dto.ToPlanResponse(plan),
		Result: dto.ToResultResponse(result),
	})
}

// GetPlan 获取计划详情
// GET /api/v1/seminars/:id
func (h *SeminarHandler) GetPlan(c *gin.Context) {
	plan, err := h.seminarSvc.GetPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSeminarError(c, err)
		return
	}

	response.OK(c, dto.ToPlanResponse(plan))
}

// UpsertPlan 按复合键保存计划
// PUT /api/v1/seminars
func (h *SeminarHandler) UpsertPlan(c *gin.Context) {
	var req dto.UpsertPlanRequest
	if !bindJSON(c, &req) {
		return
	}

	outcome, err := h.seminarSvc.UpsertPlan(c.Request.Context(), &req.SeminarPlan)
	if err != nil {
		h.handleSeminarError(c, err)
		return
	}

	if outcome.Action == service.ActionCreated {
		response.Created(c, outcome)
		return
	}
	response.OK(c, outcome)
}

// Autosave 自动保存：失败只记录日志，始终返回 202
// POST /api/v1/seminars/autosave
func (h *SeminarHandler) Autosave(c *gin.Context) {
	var req dto.UpsertPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		response.Accepted(c, gin.H{"saved": false})
		return
	}

	outcome := h.seminarSvc.QuietUpsert(c.Request.Context(), &req.SeminarPlan)
	if outcome == nil {
		response.Accepted(c, gin.H{"saved": false})
		return
	}
	response.Accepted(c, gin.H{"saved": true, "action": outcome.Action, "id": outcome.ID})
}

// SaveForm 一次提交计划与实施结果
// POST /api/v1/seminars/form
func (h *SeminarHandler) SaveForm(c *gin.Context) {
	var req dto.SaveFormRequest
	if !bindJSON(c, &req) {
		return
	}

	form := &service.FormSubmission{Plan: req.Plan}
	if req.Result != nil {
		form.Result = &service.ResultContent{
			MainContent: req.Result.MainContent,
			FuturePlan:  req.Result.FuturePlan,
			Sketches:    req.Result.Sketches,
		}
	}
	var session *service.EditSession
	if req.Session != nil {
		session = &service.EditSession{DocumentID: req.Session.DocumentID, LoadedKey: req.Session.LoadedKey}
	}

	outcome, err := h.seminarSvc.SaveForm(c.Request.Context(), session, form)
	if err != nil {
		h.handleSeminarError(c, err)
		return
	}

	response.OK(c, outcome)
}

// ToggleAttendance 修改参会人员出席标记
// PATCH /api/v1/seminars/attendance
func (h *SeminarHandler) ToggleAttendance(c *gin.Context) {
	var req dto.ToggleAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}

	outcome, err := h.seminarSvc.ToggleAttendance(c.Request.Context(), req.Session, req.Datetime, *req.Index, req.Attendance)
	if err != nil {
		h.handleSeminarError(c, err)
		return
	}

	response.OK(c, outcome)
}

// DeletePlan 删除计划（同键的实施结果一并删除）
// DELETE /api/v1/seminars/:id
func (h *SeminarHandler) DeletePlan(c *gin.Context) {
	if err := h.seminarSvc.DeletePlan(c.Request.Context(), c.Param("id")); err != nil {
		h.handleSeminarError(c, err)
		return
	}

	response.OK(c, nil)
}

// DeleteAll 清空全部计划与实施结果
// DELETE /api/v1/seminars
func (h *SeminarHandler) DeleteAll(c *gin.Context) {
	summary, err := h.seminarSvc.DeleteAll(c.Request.Context())
	if err != nil {
		h.handleSeminarError(c, err)
		return
	}

	response.OK(c, summary)
}

func (h *SeminarHandler) handleSeminarError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound):
		response.NotFound(c, 20404, "세미나 계획을 찾을 수 없습니다")
	default:
		handleCommonError(c, err)
	}
}
