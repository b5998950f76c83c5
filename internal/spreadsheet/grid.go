package spreadsheet

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// Grid 一张工作表的二维单元格。单元格为 string、数字或 nil。
type Grid [][]any

// Row 一行单元格
type Row = []any

// cellText 单元格转文本，数字按最短十进制形式输出（1 而非 1.0）
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

// present 单元格是否有值：nil、空串、数字 0 视为无值
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case float32:
		return x != 0
	case bool:
		return x
	}
	return false
}

// cellAt 取第 i 列去除首尾空白后的文本；越界或无值时返回 ""
func cellAt(row Row, i int) string {
	if i < 0 || i >= len(row) || !present(row[i]) {
		return ""
	}
	return strings.TrimSpace(cellText(row[i]))
}

// blankRow 整行无值（读取文件时得到的空行）
func blankRow(row Row) bool {
	for _, c := range row {
		if present(c) {
			return false
		}
	}
	return true
}

// textLen 按 UTF-16 码元计长度
func textLen(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// leadingInteger 文本是否以整数开头：可选正负号后紧跟数字，
// 或 "0x" 前缀后紧跟十六进制数字。名字恰好以数字开头时同样成立。
func leadingInteger(s string) bool {
	s = strings.TrimLeft(s, " \t\n\r\v\f\u00a0\ufeff")
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return len(s) > 2 && isHexDigit(s[2])
	}
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// StringGrid 将文件读出的字符串行转换为 Grid
func StringGrid(rows [][]string) Grid {
	g := make(Grid, len(rows))
	for i, r := range rows {
		row := make(Row, len(r))
		for j, c := range r {
			row[j] = c
		}
		g[i] = row
	}
	return g
}
