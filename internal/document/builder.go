package document

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kpcnc-co/seminar/internal/model"
)

// resultHeadingSuffix 实施结果文档标题后缀，前接回次
const resultHeadingSuffix = "전사 신기술 세미나 실시 결과"

// Titles 文档标题配置
type Titles struct {
	Plan   string // 实行计划默认标题，也用于文件名
	Result string // 实施结果文件名
}

// 表格列宽权重：窄列 1，正文列加宽
var (
	scheduleWidths = []float64{1.2, 3.4, 1.4, 1.2}
	attendeeWidths = []float64{0.5, 1, 1, 1.3, 2.2}
)

var (
	scheduleHeader = []string{"구분", "주요 내용", "시간", "담당"}
	attendeeHeader = []string{"No", "성명", "직급", "소속", "업무"}
)

// BuildPlanDocument 实行计划文档
func BuildPlanDocument(plan *model.SeminarPlan, titles Titles, now time.Time) *Document {
	title := SafeText(plan.Session)
	if title == "" {
		title = titles.Plan
	}

	doc := &Document{
		Title:    title,
		Date:     KoreanDate(now),
		FileName: FileName(now, titles.Plan, ""),
	}

	doc.Blocks = append(doc.Blocks,
		Heading{Text: "1. 목표"},
		Paragraph{Text: outlineIndent + "□ " + orNotEntered(plan.Objective)},
		Heading{Text: "2. 일시/장소"},
		Paragraph{Text: outlineIndent + "□ " + orNotEntered(plan.Datetime) + " / " + orNotEntered(plan.Location)},
		Heading{Text: "3. 참석 대상"},
		Paragraph{Text: outlineIndent + "□ " + orNotEntered(plan.Attendees)},
	)

	if len(plan.TimeSchedule) > 0 {
		rows := make([][]Cell, 0, len(plan.TimeSchedule))
		for _, ts := range plan.TimeSchedule {
			rows = append(rows, []Cell{
				{Text: SafeText(ts.Type), RowSpan: 1, Align: AlignCenter},
				{Text: SplitBullets(SafeText(ts.Content)), RowSpan: 1, Align: AlignLeft},
				{Text: SafeText(ts.Time), RowSpan: 1, Align: AlignCenter},
				{Text: SafeText(ts.Responsible), RowSpan: 1, Align: AlignCenter},
			})
		}
		ApplyRowSpans(rows, 0)
		doc.Blocks = append(doc.Blocks,
			Heading{Text: "4. 시간 계획"},
			Table{Header: scheduleHeader, Rows: rows, Widths: scheduleWidths},
			Closing{Text: "- 이 상 –"},
		)
	}

	if len(plan.AttendeeList) > 0 {
		doc.Blocks = append(doc.Blocks,
			PageBreak{},
			Heading{Text: "[별첨] 세미나 참석 명단"},
			attendeeTable(plan.AttendeeList, SafeText),
		)
	}
	return doc
}

// BuildResultDocument 实施结果文档。plan 提供地点、参会对象与名单，可为 nil。
func BuildResultDocument(plan *model.SeminarPlan, result *model.SeminarResult, titles Titles, now time.Time) *Document {
	if plan == nil {
		plan = &model.SeminarPlan{Session: result.Session, Datetime: result.Datetime}
	}

	doc := &Document{
		Title:    SafeText(result.Session + " " + resultHeadingSuffix),
		FileName: FileName(now, titles.Result, ""),
	}

	doc.Blocks = append(doc.Blocks,
		Heading{Text: "1. 개요"},
		KeyValue{Key: outlineIndent + "□ 일시/장소:", Value: orNotEntered(result.Datetime) + " / " + orNotEntered(plan.Location)},
		KeyValue{Key: outlineIndent + "□ 참석 인력:", Value: orNotEntered(plan.Attendees)},
		Heading{Text: "2. 주요 내용"},
		Paragraph{Text: ReflowOutline(SafeText(result.MainContent))},
		Heading{Text: "3. 향후 계획"},
		Paragraph{Text: ReflowOutline(SafeText(result.FuturePlan))},
	)

	if attended := plan.AttendedList(); len(attended) > 0 {
		doc.Blocks = append(doc.Blocks,
			PageBreak{},
			Heading{Text: "[별첨 1] 세미나 참석명단"},
			attendeeTable(attended, orNotEntered),
		)
	}

	var images []Block
	for _, s := range result.Sketches {
		if SafeText(s.Title) == "" || s.ImageData == "" {
			continue
		}
		images = append(images, Image{
			Caption: fmt.Sprintf("%d. %s", len(images)+1, SafeText(s.Title)),
			Source:  s.ImageData,
		})
	}
	if len(images) > 0 {
		doc.Blocks = append(doc.Blocks, PageBreak{}, Heading{Text: "[별첨 2] 세미나 스케치"})
		doc.Blocks = append(doc.Blocks, images...)
	}
	return doc
}

func attendeeTable(list []model.Attendee, text func(string) string) Table {
	rows := make([][]Cell, 0, len(list))
	for i, a := range list {
		rows = append(rows, []Cell{
			{Text: strconv.Itoa(i + 1), RowSpan: 1, Align: AlignCenter},
			{Text: text(a.Name), RowSpan: 1, Align: AlignCenter},
			{Text: text(a.Position), RowSpan: 1, Align: AlignCenter},
			{Text: text(a.Department), RowSpan: 1, Align: AlignCenter},
			{Text: text(a.Work), RowSpan: 1, Align: AlignLeft},
		})
	}
	return Table{Header: attendeeHeader, Rows: rows, Widths: attendeeWidths}
}
