package model

import (
	"regexp"
	"strings"
	"time"
)

// datetimeLayouts 表单中常见的일시 写法；Datetime 字段本身仍是自由文本
var datetimeLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006.01.02 15:04",
	"2006.1.2 15:04",
	"2006. 1. 2 15:04",
	"2006.01.02",
	"2006.1.2",
	"2006. 1. 2",
	"2006/01/02 15:04",
	"2006/01/02",
	"2006년 1월 2일 15:04",
	"2006년 1월 2일 15시 04분",
	"2006년 1월 2일 15시",
	"2006년 1월 2일",
}

// weekdaySuffix 去掉 "(화)"、"(Tue)" 一类星期注记
var weekdaySuffix = regexp.MustCompile(`\s*\([^)]*\)`)

// ParseDatetime 尝试按已知格式解析일시；无法识别时 ok=false
//
// 仅用于排序和日历导出，解析失败不影响记录的保存。
func ParseDatetime(text string, loc *time.Location) (t time.Time, ok bool) {
	if loc == nil {
		loc = time.Local
	}
	s := strings.TrimSpace(weekdaySuffix.ReplaceAllString(text, " "))
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range datetimeLayouts {
		if parsed, err := time.ParseInLocation(layout, s, loc); err == nil {
			return parsed, true
		}
	}
	// "2025-08-10 14:00~16:00" 之类的区间写法只取起始时间
	if i := strings.IndexAny(s, "~"); i > 0 {
		return ParseDatetime(s[:i], loc)
	}
	return time.Time{}, false
}
