package document

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpcnc-co/seminar/internal/model"
	apperrors "github.com/kpcnc-co/seminar/pkg/errors"
)

var (
	testNow    = time.Date(2025, 7, 15, 9, 30, 0, 0, time.UTC)
	testTitles = Titles{Plan: "전사 신기술 세미나 실행계획", Result: "전사 신기술 세미나 실시결과"}
)

func TestMergeRowSpans(t *testing.T) {
	sizes := func(spans []Span) []int {
		out := make([]int, len(spans))
		for i, s := range spans {
			out[i] = s.Size
		}
		return out
	}

	assert.Equal(t, []int{2, 3, 1}, sizes(MergeRowSpans([]string{"A", "A", "B", "B", "B", "C"})))
	assert.Equal(t, []int{1, 1, 1}, sizes(MergeRowSpans([]string{"A", "B", "A"})))
	assert.Equal(t, []int{2, 1}, sizes(MergeRowSpans([]string{"", "", "A"})))
	assert.Empty(t, MergeRowSpans(nil))

	spans := MergeRowSpans([]string{"A", "A", "B"})
	assert.Equal(t, []Span{{Start: 0, Size: 2}, {Start: 2, Size: 1}}, spans)
}

func TestApplyRowSpans(t *testing.T) {
	rows := [][]Cell{
		{{Text: "발표", RowSpan: 1}, {Text: "a", RowSpan: 1}},
		{{Text: "발표", RowSpan: 1}, {Text: "b", RowSpan: 1}},
		{{Text: "폐회", RowSpan: 1}, {Text: "c", RowSpan: 1}},
	}
	ApplyRowSpans(rows, 0)

	assert.Equal(t, Cell{Text: "발표", RowSpan: 2}, rows[0][0])
	assert.Equal(t, Cell{Text: "", RowSpan: 0}, rows[1][0])
	assert.Equal(t, Cell{Text: "폐회", RowSpan: 1}, rows[2][0])
	assert.Equal(t, "b", rows[1][1].Text)
}

func TestReflowOutline(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"空文本", "", "미입력"},
		{"仅空白", "  \n\n ", "미입력"},
		{"□ 行", "□ 개요", "　　□ 개요"},
		{"□ 紧贴文字", "□개요", "　　□ 개요"},
		{"- 行", "- 세부", "　　　　- 세부"},
		{"- 紧贴文字", "-세부", "　　　　- 세부"},
		{"普通行补 □", "그냥 문장", "　　□ 그냥 문장"},
		{
			"混合且丢弃空行",
			"  □ 개요\n\n- 항목 1\n  -항목 2\n결론",
			"　　□ 개요\n　　　　- 항목 1\n　　　　- 항목 2\n　　□ 결론",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReflowOutline(tt.in))
		})
	}
}

func TestSplitBullets(t *testing.T) {
	assert.Equal(t, "인사말", SplitBullets("인사말"))
	assert.Equal(t, "- 사례 1\n- 사례 2", SplitBullets("- 사례 1\n- 사례 2"))
	assert.Equal(t, "개요\n- 사례 1\n- 사례 2", SplitBullets("개요 - 사례 1 - 사례 2"))
	assert.Equal(t, "- 사례", SplitBullets("- 사례 - "))
}

func TestSafeText(t *testing.T) {
	assert.Equal(t, "a\nb", SafeText(" a\x00\n\tb\x7f "))
}

func TestKoreanDateAndFileName(t *testing.T) {
	assert.Equal(t, "2025. 7. 15(화)", KoreanDate(testNow))
	assert.Equal(t, "20250715 전사 신기술 세미나 실행계획.pdf", FileName(testNow, testTitles.Plan, ".pdf"))
}

func planFixture() *model.SeminarPlan {
	return &model.SeminarPlan{
		Session:   "제 1회",
		Objective: "AI 활용 사례 공유",
		Datetime:  "2025-08-10 14:00",
		Location:  "본사 대회의실",
		Attendees: "전 임직원",
		TimeSchedule: []model.TimeSlot{
			{Type: "개회", Content: "인사말", Time: "14:00", Responsible: "사회자"},
			{Type: "발표", Content: "- 사례 1 - 사례 2", Time: "14:10", Responsible: "김철수"},
			{Type: "발표", Content: "질의응답", Time: "15:00", Responsible: "이영희"},
		},
		AttendeeList: []model.Attendee{
			{Name: "김철수", Position: "과장", Department: "개발팀", Attendance: "Y"},
			{Name: "이영희", Position: "대리", Department: "기획팀", Work: "PM", Attendance: "N"},
		},
	}
}

func kinds(blocks []Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Kind()
	}
	return out
}

func TestBuildPlanDocument(t *testing.T) {
	doc := BuildPlanDocument(planFixture(), testTitles, testNow)

	assert.Equal(t, "제 1회", doc.Title)
	assert.Equal(t, "2025. 7. 15(화)", doc.Date)
	assert.Equal(t, "20250715 전사 신기술 세미나 실행계획", doc.FileName)
	assert.Equal(t, []string{
		"heading", "paragraph", "heading", "paragraph", "heading", "paragraph",
		"heading", "table", "closing",
		"pagebreak", "heading", "table",
	}, kinds(doc.Blocks))

	assert.Equal(t, Paragraph{Text: "　　□ 2025-08-10 14:00 / 본사 대회의실"}, doc.Blocks[3])

	schedule := doc.Blocks[7].(Table)
	assert.Equal(t, 1, schedule.Rows[0][0].RowSpan)
	assert.Equal(t, 2, schedule.Rows[1][0].RowSpan)
	assert.Equal(t, 0, schedule.Rows[2][0].RowSpan)
	assert.Equal(t, "- 사례 1\n- 사례 2", schedule.Rows[1][1].Text)

	// 计划文档名单包含全部人员
	assert.Len(t, doc.Blocks[11].(Table).Rows, 2)
}

func TestBuildPlanDocument_EmptyPlan(t *testing.T) {
	doc := BuildPlanDocument(&model.SeminarPlan{}, testTitles, testNow)

	assert.Equal(t, testTitles.Plan, doc.Title)
	assert.Len(t, doc.Blocks, 6)
	assert.Equal(t, Paragraph{Text: "　　□ 미입력"}, doc.Blocks[1])
	assert.Equal(t, Paragraph{Text: "　　□ 미입력 / 미입력"}, doc.Blocks[3])
}

func TestBuildResultDocument(t *testing.T) {
	result := &model.SeminarResult{
		Session:     "제 1회",
		Datetime:    "2025-08-10 14:00",
		MainContent: "□ 발표\n-사례",
		Sketches: []model.Sketch{
			{ID: "a", Title: "", ImageData: "data:image/png;base64,AAAA"},
			{ID: "b", Title: "전경", ImageData: "data:image/png;base64,AAAA"},
			{ID: "c", Title: "발표자", ImageData: ""},
			{ID: "d", Title: "질의응답", ImageData: "AAAA"},
		},
	}
	doc := BuildResultDocument(planFixture(), result, testTitles, testNow)

	assert.Equal(t, "제 1회 전사 신기술 세미나 실시 결과", doc.Title)
	assert.Empty(t, doc.Date)
	assert.Equal(t, "20250715 전사 신기술 세미나 실시결과", doc.FileName)
	assert.Equal(t, []string{
		"heading", "keyvalue", "keyvalue", "heading", "paragraph", "heading", "paragraph",
		"pagebreak", "heading", "table",
		"pagebreak", "heading", "image", "image",
	}, kinds(doc.Blocks))

	assert.Equal(t, "2025-08-10 14:00 / 본사 대회의실", doc.Blocks[1].(KeyValue).Value)
	assert.Equal(t, "　　□ 발표\n　　　　- 사례", doc.Blocks[4].(Paragraph).Text)
	assert.Equal(t, "미입력", doc.Blocks[6].(Paragraph).Text)

	// 仅出席者，空字段显示 미입력
	attended := doc.Blocks[9].(Table)
	require.Len(t, attended.Rows, 1)
	assert.Equal(t, "김철수", attended.Rows[0][1].Text)
	assert.Equal(t, "미입력", attended.Rows[0][4].Text)

	assert.Equal(t, "1. 전경", doc.Blocks[12].(Image).Caption)
	assert.Equal(t, "2. 질의응답", doc.Blocks[13].(Image).Caption)
}

func TestBuildResultDocument_NoPlanNoAppendix(t *testing.T) {
	doc := BuildResultDocument(nil, &model.SeminarResult{Session: "제 2회", Datetime: "2025-09-01"}, testTitles, testNow)

	assert.Len(t, doc.Blocks, 7)
	assert.Equal(t, "2025-09-01 / 미입력", doc.Blocks[1].(KeyValue).Value)
}

func TestHTMLRenderer(t *testing.T) {
	doc := BuildPlanDocument(planFixture(), testTitles, testNow)
	out, err := NewHTMLRenderer().Render(doc)
	require.NoError(t, err)

	html := string(out.Body)
	assert.True(t, out.Fallback)
	assert.Equal(t, "20250715 전사 신기술 세미나 실행계획.html", out.FileName)
	assert.Contains(t, out.ContentType, "text/html")
	assert.Contains(t, html, "<title>20250715 전사 신기술 세미나 실행계획</title>")
	assert.Contains(t, html, `rowspan="2"`)
	assert.Contains(t, html, "window.print()")
	assert.Contains(t, html, "[별첨] 세미나 참석 명단")
	// 被合并覆盖的单元格不输出
	assert.Contains(t, html, `rowspan="2">발표</td>`)
	assert.Equal(t, 1, strings.Count(html, ">발표</td>"))
}

func TestHTMLRenderer_EscapesContent(t *testing.T) {
	doc := &Document{Title: "<script>x</script>", FileName: "f", Blocks: []Block{Paragraph{Text: "<b>"}}}
	out, err := NewHTMLRenderer().Render(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(out.Body), "<script>x</script>")
	assert.Contains(t, string(out.Body), "&lt;b&gt;")
}

func TestWaitAvailable(t *testing.T) {
	calls := 0
	err := WaitAvailable(context.Background(), func() bool {
		calls++
		return calls == 3
	}, 5, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = WaitAvailable(context.Background(), func() bool { calls++; return false }, 4, time.Millisecond)
	assert.ErrorIs(t, err, apperrors.ErrRendererUnavailable)
	assert.Equal(t, 4, calls)
}

func TestExporter_FallsBackWithoutFont(t *testing.T) {
	pdf := NewPDFRenderer("/nonexistent/font.ttf", "", 0, nil)
	_, err := pdf.Render(&Document{})
	assert.ErrorIs(t, err, apperrors.ErrRendererUnavailable)

	exp := NewExporter(pdf, NewHTMLRenderer(), 2, time.Millisecond, nil)
	out, err := exp.Render(context.Background(), BuildPlanDocument(planFixture(), testTitles, testNow))
	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.False(t, exp.Probe(context.Background()))
}

func TestPDFRenderer_WithFont(t *testing.T) {
	fontPath := os.Getenv("TEST_FONT_PATH")
	if fontPath == "" {
		t.Skip("未设置 TEST_FONT_PATH，跳过 PDF 渲染测试")
	}
	result := &model.SeminarResult{
		Session: "제 1회", Datetime: "2025-08-10",
		Sketches: []model.Sketch{{ID: "a", Title: "전경", ImageData: pngDataURL(t, 40, 20)}},
	}
	exp := NewExporter(NewPDFRenderer(fontPath, "Korean", 0, nil), NewHTMLRenderer(), 1, time.Millisecond, nil)

	out, err := exp.Render(context.Background(), BuildResultDocument(planFixture(), result, testTitles, testNow))
	require.NoError(t, err)
	assert.False(t, out.Fallback)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.True(t, bytes.HasPrefix(out.Body, []byte("%PDF")))
}

func TestDecodeImageSource(t *testing.T) {
	raw := []byte("hello")
	enc := base64.StdEncoding.EncodeToString(raw)

	got, err := DecodeImageSource("data:image/png;base64," + enc)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = DecodeImageSource(enc)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = DecodeImageSource("data:image/png,plain")
	assert.Error(t, err)
	_, err = DecodeImageSource("!!!")
	assert.Error(t, err)

	assert.Equal(t, "data:image/png;base64,"+enc, DataURL(enc))
	assert.Equal(t, "data:image/jpeg;base64,x", DataURL("data:image/jpeg;base64,x"))
}

func TestPrepareImage(t *testing.T) {
	data, ratio, err := prepareImage(pngDataURL(t, 40, 20))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, ratio, 0.001)
	// JPEG SOI
	assert.True(t, bytes.HasPrefix(data, []byte{0xff, 0xd8}))

	_, _, err = prepareImage(base64.StdEncoding.EncodeToString([]byte("not an image")))
	assert.Error(t, err)
}

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 200, A: 128})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
