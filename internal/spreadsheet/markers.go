package spreadsheet

import "github.com/kpcnc-co/seminar/internal/model"

// Label 基本信息区的一行标签及其对应字段
type Label struct {
	Text  string
	Field model.Field
}

// Markers 表格格式中的固定文字：导入时用于识别，导出时原样写出
type Markers struct {
	// Title 文档标题。导出时每条记录以它开头，导入时它同时是记录分隔行。
	Title string

	Basic        string // "1. 기본 정보"
	TimeSchedule string // "2. 시간 계획"
	AttendeeList string // "3. 참석자 명단"

	Labels []Label

	TimeHeader     []string // 首格为 "구분" 的表头行
	AttendeeHeader []string // 首格为 "No" 的表头行

	Separator string // 导出时记录之间的 "=" 分隔行

	SummaryTitle  string
	SummaryHeader []string
}

// 分隔行判定阈值（按 UTF-16 长度计）
const (
	separatorPrefixLen = 20 // 以 "=" 开头且长度 ≥ 20
	separatorAnyLen    = 30 // 含 "=" 且长度 ≥ 30
)

// DefaultMarkers 现行表格格式
func DefaultMarkers() Markers {
	return Markers{
		Title:        "전사 신기술 세미나 실행계획",
		Basic:        "1. 기본 정보",
		TimeSchedule: "2. 시간 계획",
		AttendeeList: "3. 참석자 명단",
		Labels: []Label{
			{"회차", model.FieldSession},
			{"목표", model.FieldObjective},
			{"일시", model.FieldDatetime},
			{"장소", model.FieldLocation},
			{"참석 대상", model.FieldAttendees},
		},
		TimeHeader:     []string{"구분", "주요 내용", "시간", "담당"},
		AttendeeHeader: []string{"No", "성명", "직급", "소속", "업무", "출석"},
		Separator:      "==================================================",
		SummaryTitle:   "전사 신기술 세미나 전체 요약",
		SummaryHeader:  []string{"회차", "일시", "목표", "장소", "참석 대상", "시간계획 수", "참석자 수"},
	}
}

// WithTitle 替换文档标题（document.title 配置）
func (m Markers) WithTitle(title string) Markers {
	if title != "" {
		m.Title = title
	}
	return m
}

func (m Markers) fieldFor(label string) (model.Field, bool) {
	for _, l := range m.Labels {
		if l.Text == label {
			return l.Field, true
		}
	}
	return "", false
}

func (m Markers) timeHeaderCell() string {
	if len(m.TimeHeader) == 0 {
		return ""
	}
	return m.TimeHeader[0]
}

func (m Markers) attendeeHeaderCell() string {
	if len(m.AttendeeHeader) == 0 {
		return ""
	}
	return m.AttendeeHeader[0]
}
