package spreadsheet

import "github.com/kpcnc-co/seminar/internal/model"

// Serialize 单条记录的表格形式，可被 ParseSingle / ProduceRecords 原样读回（草图除外）
func (c *Codec) Serialize(plan *model.SeminarPlan) Grid {
	g := Grid{
		{c.m.Title},
		{},
		{c.m.Basic},
	}
	for _, l := range c.m.Labels {
		g = append(g, Row{l.Text, plan.Get(l.Field)})
	}
	g = append(g, Row{})

	if len(plan.TimeSchedule) > 0 {
		g = append(g, Row{c.m.TimeSchedule}, stringRow(c.m.TimeHeader))
		for _, ts := range plan.TimeSchedule {
			g = append(g, Row{ts.Type, ts.Content, ts.Time, ts.Responsible})
		}
		g = append(g, Row{})
	}

	if len(plan.AttendeeList) > 0 {
		g = append(g, Row{c.m.AttendeeList}, stringRow(c.m.AttendeeHeader))
		for i, a := range plan.AttendeeList {
			g = append(g, Row{i + 1, a.Name, a.Position, a.Department, a.Work,
				model.NormalizeAttendance(a.Attendance)})
		}
	}
	return g
}

// SerializeAll 多条记录拼接到同一张表，记录之间插入 "=" 分隔行
func (c *Codec) SerializeAll(plans []model.SeminarPlan) Grid {
	var g Grid
	for i := range plans {
		if i > 0 {
			g = append(g, Row{}, Row{c.m.Separator}, Row{})
		}
		g = append(g, c.Serialize(&plans[i])...)
	}
	return g
}

// Summary 汇总表：每条记录一行，附时间计划与参会人数
func (c *Codec) Summary(plans []model.SeminarPlan) Grid {
	g := Grid{
		{c.m.SummaryTitle},
		{},
		stringRow(c.m.SummaryHeader),
	}
	for _, p := range plans {
		g = append(g, Row{
			p.Session,
			p.Datetime,
			p.Objective,
			p.Location,
			p.Attendees,
			len(p.TimeSchedule),
			len(p.AttendeeList),
		})
	}
	return g
}

func stringRow(cells []string) Row {
	row := make(Row, len(cells))
	for i, s := range cells {
		row[i] = s
	}
	return row
}
