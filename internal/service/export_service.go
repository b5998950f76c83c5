package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/kpcnc-co/seminar/internal/document"
	"github.com/kpcnc-co/seminar/internal/model"
	"github.com/kpcnc-co/seminar/internal/spreadsheet"
	apperrors "github.com/kpcnc-co/seminar/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoData       = errors.New("내보낼 세미나 데이터가 없습니다")
	ErrDatetimeUnparsable = errors.New("일시를 날짜로 해석할 수 없습니다")
)

// ExportMode 表格导出方式
type ExportMode string

const (
	ExportCombined  ExportMode = "combined"   // 单表 전체데이터
	ExportPerRecord ExportMode = "per_record" // 每条记录一张表 + 전체요약
	ExportFull      ExportMode = "full"       // 以上两者
)

// 工作表名称
const (
	sheetCombined  = "전체데이터"
	sheetSummary   = "전체요약"
	sheetPerRecord = "세미나%d"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ParseExportMode 空串返回 fallback
func ParseExportMode(s string, fallback ExportMode) (ExportMode, error) {
	switch m := ExportMode(strings.TrimSpace(s)); m {
	case "":
		return fallback, nil
	case ExportCombined, ExportPerRecord, ExportFull:
		return m, nil
	}
	return "", apperrors.NewValidation("mode", "mode 는 combined, per_record, full 중 하나여야 합니다")
}

// ExportOptions 导出配置
type ExportOptions struct {
	Titles      document.Titles
	DefaultMode ExportMode
	EventLength time.Duration
	Location    *time.Location
	Now         func() time.Time
}

// ExportService 导出业务接口
//
// 设计说明：
//   - 表格导出生成 .xlsx，可被导入接口原样读回
//   - 文档导出优先 PDF；渲染器不可用时返回打印版 HTML（Fallback=true），调用方无需处理错误
//   - 导出结果统一为 document.Rendered，由 Handler 层设置响应头
type ExportService interface {
	ExportWorkbook(ctx context.Context, mode ExportMode) (*document.Rendered, error)
	ExportPlanPDF(ctx context.Context, id string) (*document.Rendered, error)
	ExportResultPDF(ctx context.Context, session, datetime string) (*document.Rendered, error)
	ExportPlanICS(ctx context.Context, id string) (*document.Rendered, error)
}

type exportService struct {
	seminar  SeminarService
	codec    *spreadsheet.Codec
	exporter *document.Exporter
	opts     ExportOptions
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(seminar SeminarService, codec *spreadsheet.Codec, exporter *document.Exporter, opts ExportOptions, logger *zap.Logger) ExportService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.DefaultMode == "" {
		opts.DefaultMode = ExportFull
	}
	if opts.EventLength <= 0 {
		opts.EventLength = 2 * time.Hour
	}
	return &exportService{seminar: seminar, codec: codec, exporter: exporter, opts: opts, logger: logger}
}

func (s *exportService) now() time.Time { return s.opts.Now().In(s.opts.Location) }

// ═══════════════════════════════════════════════════════════
// ExportWorkbook 全部计划导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 文件名：<YYYYMMDD> 전사 신기술 세미나 실행계획.xlsx（导出当天）

func (s *exportService) ExportWorkbook(ctx context.Context, mode ExportMode) (*document.Rendered, error) {
	if mode == "" {
		mode = s.opts.DefaultMode
	}

	entries, err := s.seminar.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrExportNoData
	}
	plans := make([]model.SeminarPlan, len(entries))
	for i, e := range entries {
		plans[i] = e.Record
	}

	var sheets []spreadsheet.Sheet
	if mode == ExportCombined || mode == ExportFull {
		sheets = append(sheets, spreadsheet.Sheet{Name: sheetCombined, Rows: s.codec.SerializeAll(plans)})
	}
	if mode == ExportPerRecord || mode == ExportFull {
		for i := range plans {
			sheets = append(sheets, spreadsheet.Sheet{
				Name: fmt.Sprintf(sheetPerRecord, i+1),
				Rows: s.codec.Serialize(&plans[i]),
			})
		}
		sheets = append(sheets, spreadsheet.Sheet{Name: sheetSummary, Rows: s.codec.Summary(plans)})
	}

	buf, err := s.codec.WriteWorkbook(sheets)
	if err != nil {
		s.logger.Error("生成 Excel 失败", zap.Error(err))
		return nil, fmt.Errorf("생성 실패: %w", err)
	}

	s.logger.Info("Excel 导出完成", zap.String("mode", string(mode)), zap.Int("records", len(plans)))
	return &document.Rendered{
		Body:        buf.Bytes(),
		ContentType: contentTypeXLSX,
		FileName:    document.FileName(s.now(), s.opts.Titles.Plan, ".xlsx"),
	}, nil
}

// ═══════════════════════════════════════════════════════════
// 文档导出
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportPlanPDF(ctx context.Context, id string) (*document.Rendered, error) {
	entry, err := s.seminar.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	doc := document.BuildPlanDocument(&entry.Record, s.opts.Titles, s.now())
	return s.render(ctx, doc)
}

func (s *exportService) ExportResultPDF(ctx context.Context, session, datetime string) (*document.Rendered, error) {
	if err := model.ValidateKey(session, datetime); err != nil {
		return nil, err
	}
	result, err := s.seminar.FindResultByKey(ctx, session, datetime)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrResultNotFound
	}

	// 计划缺失时地点、参会对象显示 미입력
	var plan *model.SeminarPlan
	entry, err := s.seminar.FindByKey(ctx, session, datetime)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		plan = &entry.Record
	}

	doc := document.BuildResultDocument(plan, &result.Record, s.opts.Titles, s.now())
	return s.render(ctx, doc)
}

func (s *exportService) render(ctx context.Context, doc *document.Document) (*document.Rendered, error) {
	out, err := s.exporter.Render(ctx, doc)
	if err != nil {
		s.logger.Error("文档渲染失败", zap.String("file", doc.FileName), zap.Error(err))
		return nil, err
	}
	if out.Fallback {
		s.logger.Info("以打印版 HTML 输出文档", zap.String("file", out.FileName))
	}
	return out, nil
}

// ═══════════════════════════════════════════════════════════
// ExportPlanICS 单个活动的 iCalendar 文件
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportPlanICS(ctx context.Context, id string) (*document.Rendered, error) {
	entry, err := s.seminar.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	plan := entry.Record

	start, ok := model.ParseDatetime(plan.Datetime, s.opts.Location)
	if !ok {
		return nil, ErrDatetimeUnparsable
	}

	now := s.now()
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//kpcnc//seminar//KO")

	ev := cal.AddEvent(entry.ID + "@seminar")
	ev.SetDtStampTime(now)
	ev.SetCreatedTime(entry.CreatedAt)
	ev.SetModifiedAt(entry.UpdatedAt)
	ev.SetStartAt(start)
	ev.SetEndAt(start.Add(s.opts.EventLength))
	ev.SetSummary(strings.TrimSpace(plan.Session + " " + s.opts.Titles.Plan))
	if plan.Location != "" {
		ev.SetLocation(plan.Location)
	}
	var desc []string
	if plan.Objective != "" {
		desc = append(desc, "목표: "+plan.Objective)
	}
	if plan.Attendees != "" {
		desc = append(desc, "참석 대상: "+plan.Attendees)
	}
	if len(desc) > 0 {
		ev.SetDescription(strings.Join(desc, "\n"))
	}

	return &document.Rendered{
		Body:        []byte(cal.Serialize()),
		ContentType: contentTypeICS,
		FileName:    document.FileName(now, s.opts.Titles.Plan, ".ics"),
	}, nil
}
