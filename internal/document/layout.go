package document

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// 缩进与占位文字
const (
	outlineIndent = "　　"     // □ 级
	bulletIndent  = "　　　　" // - 级
	notEntered    = "미입력"
)

// Span 合并组：从 Start 行开始共 Size 行
type Span struct {
	Start int
	Size  int
}

// MergeRowSpans 相邻且值相同的行合并为一组，首行为锚点。
// 不相邻的相同值不合并；空串只与相邻的空串合并。
func MergeRowSpans(values []string) []Span {
	var spans []Span
	for i, v := range values {
		if n := len(spans); n > 0 && values[spans[n-1].Start] == v {
			spans[n-1].Size++
			continue
		}
		spans = append(spans, Span{Start: i, Size: 1})
	}
	return spans
}

// ApplyRowSpans 按第 col 列的合并组设置 RowSpan，组内非锚点行的该列置空
func ApplyRowSpans(rows [][]Cell, col int) {
	values := make([]string, len(rows))
	for i, r := range rows {
		values[i] = r[col].Text
	}
	for _, s := range MergeRowSpans(values) {
		rows[s.Start][col].RowSpan = s.Size
		for i := s.Start + 1; i < s.Start+s.Size; i++ {
			rows[i][col].Text = ""
			rows[i][col].RowSpan = 0
		}
	}
}

// ReflowOutline 将正文整理成统一缩进的提纲：
// "□ x"/"□x" 归入 □ 级，"- x"/"-x" 归入 - 级，其余行补上 □。空行丢弃。
func ReflowOutline(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "□"):
			out = append(out, outlineIndent+"□ "+strings.TrimSpace(strings.TrimPrefix(line, "□")))
		case strings.HasPrefix(line, "-"):
			out = append(out, bulletIndent+"- "+strings.TrimSpace(strings.TrimPrefix(line, "-")))
		default:
			out = append(out, outlineIndent+"□ "+line)
		}
	}
	if len(out) == 0 {
		return notEntered
	}
	return strings.Join(out, "\n")
}

// SplitBullets 时间计划内容中内嵌的 "- " 各自另起一行
func SplitBullets(content string) string {
	parts := strings.Split(content, "- ")
	if len(parts) <= 1 {
		return content
	}
	var lines []string
	if head := strings.TrimSpace(parts[0]); head != "" {
		lines = append(lines, head)
	}
	for _, p := range parts[1:] {
		if p = strings.TrimSpace(p); p != "" {
			lines = append(lines, "- "+p)
		}
	}
	return strings.Join(lines, "\n")
}

// SafeText 去除控制字符与首尾空白；换行保留
func SafeText(s string) string {
	s = strings.Map(func(r rune) rune {
		if r != '\n' && unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// orNotEntered 空值替换为 "미입력"
func orNotEntered(s string) string {
	if s = SafeText(s); s == "" {
		return notEntered
	}
	return s
}

var koreanWeekdays = [...]string{"일", "월", "화", "수", "목", "금", "토"}

// KoreanDate 文档作成日期，如 "2025. 7. 15(화)"
func KoreanDate(t time.Time) string {
	return fmt.Sprintf("%d. %d. %d(%s)", t.Year(), int(t.Month()), t.Day(), koreanWeekdays[t.Weekday()])
}

// FileName 导出文件名 "<YYYYMMDD> <标题><扩展名>"，日期为导出当天
func FileName(now time.Time, title, ext string) string {
	return now.Format("20060102") + " " + title + ext
}
