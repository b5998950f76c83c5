package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpcnc-co/seminar/internal/model"
	apperrors "github.com/kpcnc-co/seminar/pkg/errors"
)

func testPlan(session, datetime string) model.SeminarPlan {
	return model.SeminarPlan{
		Session:   session,
		Objective: "생성형 AI 활용 사례 공유",
		Datetime:  datetime,
		Location:  "본사 3층 대회의실",
		Attendees: "전 임직원",
		TimeSchedule: []model.TimeSlot{
			{Type: "개회", Content: "인사말", Time: "14:00~14:10", Responsible: "사회자"},
			{Type: "발표", Content: "- 사례 1\n- 사례 2", Time: "14:10~15:00", Responsible: "김철수"},
			{Type: "발표", Content: "질의응답", Time: "15:00~15:20", Responsible: "이영희"},
		},
		AttendeeList: []model.Attendee{
			{Name: "김철수", Position: "과장", Department: "개발팀", Work: "QA", Attendance: "Y"},
			{Name: "이영희", Position: "대리", Department: "기획팀", Work: "PM", Attendance: "N"},
		},
	}
}

func TestRoundTrip_Single(t *testing.T) {
	c := NewCodec(DefaultMarkers())
	plan := testPlan("제 1회", "2025-08-10 14:00")

	g := c.Serialize(&plan)
	got := c.ParseSingle(g)
	assert.Equal(t, plan, got)

	records := c.ProduceRecords(g)
	require.Len(t, records, 1)
	assert.Equal(t, plan, records[0])
}

func TestRoundTrip_EmptySections(t *testing.T) {
	c := NewCodec(DefaultMarkers())
	plan := model.SeminarPlan{Session: "제 2회", Datetime: "2025-09-01", Objective: "x"}
	plan.Normalize()

	got := c.ParseSingle(c.Serialize(&plan))
	assert.Equal(t, plan, got)
}

func TestRoundTrip_Workbook(t *testing.T) {
	c := NewCodec(DefaultMarkers())
	plans := []model.SeminarPlan{testPlan("제 1회", "2025-08-10 14:00"), testPlan("제 2회", "2025-09-10 14:00")}

	buf, err := c.WriteWorkbook([]Sheet{
		{Name: "전체데이터", Rows: c.SerializeAll(plans)},
		{Name: "전체요약", Rows: c.Summary(plans)},
	})
	require.NoError(t, err)

	g, err := ReadFirstSheet("export.xlsx", bytes.NewReader(buf.Bytes()), 0)
	require.NoError(t, err)

	records := c.ProduceRecords(g)
	require.Len(t, records, 2)
	assert.Equal(t, plans[0], records[0])
	assert.Equal(t, plans[1], records[1])
}

func TestWriteWorkbook_NoSheets(t *testing.T) {
	c := NewCodec(DefaultMarkers())
	for _, sheets := range [][]Sheet{nil, {}} {
		buf, err := c.WriteWorkbook(sheets)
		assert.ErrorIs(t, err, ErrNoSheets)
		assert.Nil(t, buf)
	}
}

func TestProduceRecords_Separators(t *testing.T) {
	c := NewCodec(DefaultMarkers())
	p1 := testPlan("제 1회", "2025-08-10 14:00")
	p2 := testPlan("제 2회", "2025-09-10 14:00")

	// 两条记录之间仅以 25 个 "=" 分隔，且去掉标题行
	g := append(Grid{}, c.Serialize(&p1)[1:]...)
	g = append(g, Row{strings.Repeat("=", 25)})
	g = append(g, c.Serialize(&p2)[1:]...)

	records := c.ProduceRecords(g)
	require.Len(t, records, 2)
	assert.Equal(t, "제 1회", records[0].Session)
	assert.Equal(t, "제 2회", records[1].Session)
	assert.Len(t, records[1].AttendeeList, 2)

	// 无分隔行的单条记录
	single := c.Serialize(&p1)[1:]
	assert.Len(t, c.ProduceRecords(single), 1)
	assert.Equal(t, 0, c.CountSeparators(single))
}

func TestIsSeparator(t *testing.T) {
	c := NewCodec(DefaultMarkers())
	tests := []struct {
		in   string
		want bool
	}{
		{strings.Repeat("=", 20), true},
		{strings.Repeat("=", 19), false},
		{"전사 신기술 세미나 실행계획", true},
		{"-- " + strings.Repeat("=", 27), true},
		{"-- " + strings.Repeat("=", 26), false},
		{"a=b", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.IsSeparator(tt.in), "输入 %q", tt.in)
	}
}

func TestCountSeparators(t *testing.T) {
	c := NewCodec(DefaultMarkers())
	plans := []model.SeminarPlan{testPlan("1", "a"), testPlan("2", "b"), testPlan("3", "c")}
	// 每条记录一个标题行 + 两个 "=" 分隔行
	assert.Equal(t, 5, c.CountSeparators(c.SerializeAll(plans)))
	assert.Equal(t, 1, c.CountSeparators(c.Serialize(&plans[0])))
}

func TestProduceRecords_DropsRecordWithoutSession(t *testing.T) {
	c := NewCodec(DefaultMarkers())
	g := Grid{
		{"전사 신기술 세미나 실행계획"},
		{"1. 기본 정보"},
		{"일시", "2025-08-10"},
		{"전사 신기술 세미나 실행계획"},
		{"1. 기본 정보"},
		{"회차", "제 3회"},
	}
	records := c.ProduceRecords(g)
	require.Len(t, records, 1)
	assert.Equal(t, "제 3회", records[0].Session)
	assert.Equal(t, "", records[0].Datetime)
}

func TestAttendeeColumnDisambiguation(t *testing.T) {
	c := NewCodec(DefaultMarkers())
	want := model.Attendee{Name: "Kim", Position: "Mgr", Department: "Eng", Work: "QA", Attendance: "N"}

	for _, row := range []Row{
		{"1", "Kim", "Mgr", "Eng", "QA"},
		{"Kim", "Mgr", "Eng", "QA"},
		{1.0, "Kim", "Mgr", "Eng", "QA"},
	} {
		g := Grid{{"3. 참석자 명단"}, {"No", "성명"}, row}
		got := c.ParseSingle(g)
		require.Len(t, got.AttendeeList, 1, "行 %v", row)
		assert.Equal(t, want, got.AttendeeList[0], "行 %v", row)
	}

	// 名字以数字开头时同样被当作 No 列
	g := Grid{{"3. 참석자 명단"}, {"7팀", "Mgr", "Eng", "QA"}}
	got := c.ParseSingle(g)
	require.Len(t, got.AttendeeList, 1)
	assert.Equal(t, "Mgr", got.AttendeeList[0].Name)
}

func TestLeadingInteger(t *testing.T) {
	for in, want := range map[string]bool{
		"1":         true,
		"12a":       true,
		"-3":        true,
		"+4":        true,
		"0x1F":      true,
		"0xZ":       false,
		"Kim":       false,
		"":          false,
		"-":         false,
		" 5":        true,
		"\u00a07":   true,
		"\ufeff8":   true,
		"\u00a0Kim": false,
	} {
		assert.Equal(t, want, leadingInteger(in), "输入 %q", in)
	}
}

func TestParse_MalformedRowsSkipped(t *testing.T) {
	c := NewCodec(DefaultMarkers())
	g := Grid{
		nil,
		{},
		{nil, nil},
		{"1. 기본 정보"},
		// 缺少值、空值都不写入
		{"회차"},
		{"회차", ""},
		{"회차", "제 5회"},
		{"알 수 없는 항목", "무시"},
		{"일시", 20250810},
		{"2. 시간 계획"},
		{"구분", "주요 내용", "시간", "담당"},
		// 列不足的行照常读取
		{"개회"},
		// 首格为空：本区段结束
		{"", "내용만 있는 행"},
		{"발표", "이후 행은 무시"},
		{"3. 참석자 명단"},
		{"No", "성명"},
		{"1", "김철수", "과장"},
	}

	got := c.ParseSingle(g)
	assert.Equal(t, "제 5회", got.Session)
	assert.Equal(t, "20250810", got.Datetime)
	require.Len(t, got.TimeSchedule, 1)
	assert.Equal(t, model.TimeSlot{Type: "개회"}, got.TimeSchedule[0])
	require.Len(t, got.AttendeeList, 1)
	assert.Equal(t, "과장", got.AttendeeList[0].Position)
	assert.Equal(t, "", got.AttendeeList[0].Department)
}

func TestSummary(t *testing.T) {
	c := NewCodec(DefaultMarkers())
	plans := []model.SeminarPlan{testPlan("제 1회", "2025-08-10 14:00")}
	g := c.Summary(plans)

	require.Len(t, g, 4)
	assert.Equal(t, "전사 신기술 세미나 전체 요약", g[0][0])
	assert.Equal(t, Row{"제 1회", "2025-08-10 14:00", "생성형 AI 활용 사례 공유", "본사 3층 대회의실", "전 임직원", 3, 2}, g[3])
}

func TestCustomTitleMarker(t *testing.T) {
	c := NewCodec(DefaultMarkers().WithTitle("신기술 세미나"))
	plan := testPlan("제 1회", "2025-08-10 14:00")
	g := c.SerializeAll([]model.SeminarPlan{plan, plan})

	assert.Equal(t, "신기술 세미나", g[0][0])
	assert.True(t, c.IsSeparator("신기술 세미나"))
	assert.False(t, c.IsSeparator("전사 신기술 세미나 실행계획"))
	assert.Len(t, c.ProduceRecords(g), 2)
}

func TestReadFirstSheet_RejectsExtension(t *testing.T) {
	r := &countingReader{}
	_, err := ReadFirstSheet("seminar.csv", r, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsImportFormat(err))
	assert.Zero(t, r.reads, "被拒绝的文件不应被读取")

	assert.NoError(t, CheckExtension("A.XLSX"))
	assert.NoError(t, CheckExtension("legacy.xls"))
}

func TestReadFirstSheet_Corrupt(t *testing.T) {
	_, err := ReadFirstSheet("broken.xlsx", strings.NewReader("not a zip"), 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestReadFirstSheet_MaxRows(t *testing.T) {
	c := NewCodec(DefaultMarkers())
	plan := testPlan("제 1회", "2025-08-10 14:00")
	buf, err := c.WriteWorkbook([]Sheet{{Name: "세미나1", Rows: c.Serialize(&plan)}})
	require.NoError(t, err)

	_, err = ReadFirstSheet("a.xlsx", bytes.NewReader(buf.Bytes()), 3)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

type countingReader struct{ reads int }

func (r *countingReader) Read(p []byte) (int, error) {
	r.reads++
	return 0, nil
}
