package dto

import (
	"time"

	"github.com/kpcnc-co/seminar/internal/model"
	"github.com/kpcnc-co/seminar/internal/repository"
)

// ── 세미나 计划 DTO ──

// KeyQuery 复合键查询参数（회차 + 일시）
type KeyQuery struct {
	Session  string `form:"session"  binding:"required"`
	Datetime string `form:"datetime" binding:"required"`
}

// UpsertPlanRequest 按复合键保存计划：键存在则覆盖，否则新建
type UpsertPlanRequest struct {
	model.SeminarPlan
}

// EditSessionRequest 表单编辑会话：最近一次加载的文档 ID 与其键
type EditSessionRequest struct {
	DocumentID string `json:"documentId"`
	LoadedKey  string `json:"loadedKey"`
}

// ResultContentRequest 表单中的实施结果部分
type ResultContentRequest struct {
	MainContent string         `json:"mainContent"`
	FuturePlan  string         `json:"futurePlan"`
	Sketches    []model.Sketch `json:"sketches"`
}

// SaveFormRequest 一次提交计划与实施结果
type SaveFormRequest struct {
	Plan    model.SeminarPlan     `json:"plan"`
	Result  *ResultContentRequest `json:"result"`
	Session *EditSessionRequest   `json:"editSession"`
}

// ToggleAttendanceRequest 修改单个参会人员的出席标记
type ToggleAttendanceRequest struct {
	Session    string `json:"session"    binding:"required"`
	Datetime   string `json:"datetime"   binding:"required"`
	Index      *int   `json:"index"      binding:"required,min=0"`
	Attendance string `json:"attendance" binding:"required,attendance"`
}

// ── 实施结果 DTO ──

// UpsertResultRequest 按复合键保存实施结果
type UpsertResultRequest struct {
	model.SeminarResult
}

// AddSketchRequest 追加一张现场照片
type AddSketchRequest struct {
	Session   string `json:"session"   binding:"required"`
	Datetime  string `json:"datetime"  binding:"required"`
	Title     string `json:"title"`
	ImageData string `json:"imageData"`
	FileName  string `json:"fileName"`
}

// UpdateSketchRequest 部分更新照片，nil 字段保持不变
type UpdateSketchRequest struct {
	Session   string  `json:"session"   binding:"required"`
	Datetime  string  `json:"datetime"  binding:"required"`
	Title     *string `json:"title"`
	ImageData *string `json:"imageData"`
	FileName  *string `json:"fileName"`
}

// ReorderSketchesRequest 照片新顺序，IDs 必须恰好是现有照片的一个排列
type ReorderSketchesRequest struct {
	Session  string   `json:"session"  binding:"required"`
	Datetime string   `json:"datetime" binding:"required"`
	IDs      []string `json:"ids"      binding:"required"`
}

// ── 导出 DTO ──

// ExportExcelQuery 表格导出参数
type ExportExcelQuery struct {
	Mode string `form:"mode" binding:"omitempty,oneof=combined per_record full"`
}

// ── 响应 ──

// PlanResponse 计划及其存储标识
type PlanResponse struct {
	ID        string            `json:"id"`
	Plan      model.SeminarPlan `json:"plan"`
	CreatedAt string            `json:"createdAt"`
	UpdatedAt string            `json:"updatedAt"`
}

// ResultResponse 实施结果及其存储标识
type ResultResponse struct {
	ID        string              `json:"id"`
	Result    model.SeminarResult `json:"result"`
	CreatedAt string              `json:"createdAt"`
	UpdatedAt string              `json:"updatedAt"`
}

// LookupResponse 按键查找的结果，两者均可能为空
type LookupResponse struct {
	Plan   *PlanResponse   `json:"plan"`
	Result *ResultResponse `json:"result"`
}

// ToPlanResponse 转换存储记录
func ToPlanResponse(e *repository.Entry[model.SeminarPlan]) *PlanResponse {
	if e == nil {
		return nil
	}
	return &PlanResponse{
		ID:        e.ID,
		Plan:      e.Record,
		CreatedAt: formatTime(e.CreatedAt),
		UpdatedAt: formatTime(e.UpdatedAt),
	}
}

// ToResultResponse 转换存储记录
func ToResultResponse(e *repository.Entry[model.SeminarResult]) *ResultResponse {
	if e == nil {
		return nil
	}
	return &ResultResponse{
		ID:        e.ID,
		Result:    e.Record,
		CreatedAt: formatTime(e.CreatedAt),
		UpdatedAt: formatTime(e.UpdatedAt),
	}
}

// ToPlanList 批量转换
func ToPlanList(entries []repository.Entry[model.SeminarPlan]) []PlanResponse {
	out := make([]PlanResponse, 0, len(entries))
	for i := range entries {
		out = append(out, *ToPlanResponse(&entries[i]))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
