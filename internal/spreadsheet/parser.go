package spreadsheet

import (
	"strings"

	"github.com/kpcnc-co/seminar/internal/model"
)

// Codec 在 Grid 与 SeminarPlan 之间转换
type Codec struct {
	m Markers
}

// NewCodec 创建 Codec
func NewCodec(m Markers) *Codec {
	return &Codec{m: m}
}

// Markers 返回当前使用的固定文字表
func (c *Codec) Markers() Markers { return c.m }

type section int

const (
	sectionNone section = iota
	sectionBasic
	sectionTimeSchedule
	sectionAttendeeList
)

// recordState 单条记录的解析状态
type recordState struct {
	plan           model.SeminarPlan
	section        section
	timeActive     bool
	attendeeActive bool
}

func newRecordState() *recordState {
	return &recordState{plan: model.SeminarPlan{
		TimeSchedule: []model.TimeSlot{},
		AttendeeList: []model.Attendee{},
	}}
}

// IsSeparator 判断首格文本是否为记录分隔行
func (c *Codec) IsSeparator(first string) bool {
	n := textLen(first)
	switch {
	case strings.HasPrefix(first, "=") && n >= separatorPrefixLen:
		return true
	case first == c.m.Title:
		return true
	case strings.Contains(first, "=") && n >= separatorAnyLen:
		return true
	}
	return false
}

// CountSeparators 统计 Grid 中的分隔行数量（含标题行）
func (c *Codec) CountSeparators(g Grid) int {
	n := 0
	for _, row := range g {
		if blankRow(row) {
			continue
		}
		if c.IsSeparator(cellAt(row, 0)) {
			n++
		}
	}
	return n
}

// ParseSingle 将整张表视为一条记录解析，不处理分隔行
func (c *Codec) ParseSingle(g Grid) model.SeminarPlan {
	st := newRecordState()
	for _, row := range g {
		if blankRow(row) {
			continue
		}
		c.feed(st, row)
	}
	st.plan.Normalize()
	return st.plan
}

// ProduceRecords 单遍扫描，按分隔行拆分出多条记录。
// 缺少회차的记录被丢弃；结构异常的行被跳过，不会报错。
func (c *Codec) ProduceRecords(g Grid) []model.SeminarPlan {
	out := []model.SeminarPlan{}
	st := newRecordState()

	flush := func() {
		if st.plan.Session != "" {
			st.plan.Normalize()
			out = append(out, st.plan)
		}
	}

	for _, row := range g {
		if blankRow(row) {
			continue
		}
		if c.IsSeparator(cellAt(row, 0)) {
			flush()
			st = newRecordState()
			continue
		}
		c.feed(st, row)
	}
	flush()
	return out
}

// feed 处理非空、非分隔的一行
func (c *Codec) feed(st *recordState, row Row) {
	first := cellAt(row, 0)

	// 区段标记按子串匹配
	switch {
	case first != "" && strings.Contains(first, c.m.Basic):
		st.section = sectionBasic
		return
	case first != "" && strings.Contains(first, c.m.TimeSchedule):
		st.section = sectionTimeSchedule
		st.timeActive = true
		return
	case first != "" && strings.Contains(first, c.m.AttendeeList):
		st.section = sectionAttendeeList
		st.attendeeActive = true
		st.timeActive = false
		return
	}

	switch st.section {
	case sectionBasic:
		c.feedBasic(st, row, first)
	case sectionTimeSchedule:
		if st.timeActive {
			c.feedTimeSlot(st, row, first)
		}
	case sectionAttendeeList:
		if st.attendeeActive {
			c.feedAttendee(st, row, first)
		}
	}
}

func (c *Codec) feedBasic(st *recordState, row Row, first string) {
	f, ok := c.m.fieldFor(first)
	if !ok {
		return
	}
	if len(row) < 2 || !present(row[1]) {
		return
	}
	st.plan.Set(f, cellAt(row, 1))
}

func (c *Codec) feedTimeSlot(st *recordState, row Row, first string) {
	if first == c.m.timeHeaderCell() {
		return
	}
	// 首格为空即本区段结束
	if first == "" {
		st.timeActive = false
		return
	}
	st.plan.TimeSchedule = append(st.plan.TimeSchedule, model.TimeSlot{
		Type:        first,
		Content:     cellAt(row, 1),
		Time:        cellAt(row, 2),
		Responsible: cellAt(row, 3),
	})
}

func (c *Codec) feedAttendee(st *recordState, row Row, first string) {
	if first == c.m.attendeeHeaderCell() {
		return
	}
	if first == "" {
		st.attendeeActive = false
		return
	}

	// 首格以整数开头视为带 No 列，整体右移一列
	offset := 0
	if leadingInteger(first) {
		offset = 1
	}
	st.plan.AttendeeList = append(st.plan.AttendeeList, model.Attendee{
		Name:       cellAt(row, offset),
		Position:   cellAt(row, offset+1),
		Department: cellAt(row, offset+2),
		Work:       cellAt(row, offset+3),
		Attendance: model.NormalizeAttendance(cellAt(row, offset+4)),
	})
}
