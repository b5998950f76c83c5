package model

import "strings"

// SeminarPlan 세미나 실행계획，根聚合，由 (Session, Datetime) 复合键标识
//
// JSON/BSON 字段名沿用浏览器端表单的文档格式。
type SeminarPlan struct {
	Session      string     `json:"session"      bson:"session"`
	Objective    string     `json:"objective"    bson:"objective"`
	Datetime     string     `json:"datetime"     bson:"datetime"` // 自由文本，不强制解析
	Location     string     `json:"location"     bson:"location"`
	Attendees    string     `json:"attendees"    bson:"attendees"` // 参会对象描述，区别于 AttendeeList
	TimeSchedule []TimeSlot `json:"timeSchedule" bson:"timeSchedule"`
	AttendeeList []Attendee `json:"attendeeList" bson:"attendeeList"`
	Sketches     []Sketch   `json:"sketches,omitempty" bson:"sketches,omitempty"`
}

// TimeSlot 时间计划行，顺序有意义（PDF 按相邻 Type 合并单元格）
type TimeSlot struct {
	Type        string `json:"type"        bson:"type"`
	Content     string `json:"content"     bson:"content"` // 可内嵌 "- " 项目符号
	Time        string `json:"time"        bson:"time"`
	Responsible string `json:"responsible" bson:"responsible"`
}

// 出席标记
const (
	AttendanceYes = "Y"
	AttendanceNo  = "N"
)

// Attendee 参会人员
type Attendee struct {
	Name       string `json:"name"       bson:"name"`
	Position   string `json:"position"   bson:"position"`
	Department string `json:"department" bson:"department"`
	Work       string `json:"work"       bson:"work"`
	Attendance string `json:"attendance" bson:"attendance"`
}

// Attended 是否已标记出席
func (a Attendee) Attended() bool { return a.Attendance == AttendanceYes }

// Sketch 现场照片附件。ID 为稳定的合成标识，位置仅表示展示顺序。
type Sketch struct {
	ID        string `json:"id"        bson:"id"`
	Title     string `json:"title"     bson:"title"`
	ImageData string `json:"imageData" bson:"imageData"` // data URL / base64 编码的图片
	FileName  string `json:"fileName"  bson:"fileName"`
}

// SeminarResult 세미나 실시결과，与计划共用复合键的子资源
type SeminarResult struct {
	Session     string   `json:"session"     bson:"session"`
	Datetime    string   `json:"datetime"    bson:"datetime"`
	MainContent string   `json:"mainContent" bson:"mainContent"`
	FuturePlan  string   `json:"futurePlan"  bson:"futurePlan"`
	Sketches    []Sketch `json:"sketches"    bson:"sketches"`
}

// Key 返回计划的复合键
func (p *SeminarPlan) Key() string { return CompositeKey(p.Session, p.Datetime) }

// Key 返回实施结果的复合键
func (r *SeminarResult) Key() string { return CompositeKey(r.Session, r.Datetime) }

// Normalize 规范化出席标记，并保证切片非 nil（序列化为 [] 而非 null）
func (p *SeminarPlan) Normalize() {
	if p.TimeSchedule == nil {
		p.TimeSchedule = []TimeSlot{}
	}
	if p.AttendeeList == nil {
		p.AttendeeList = []Attendee{}
	}
	for i := range p.AttendeeList {
		p.AttendeeList[i].Attendance = NormalizeAttendance(p.AttendeeList[i].Attendance)
	}
}

// Normalize 保证 Sketches 非 nil
func (r *SeminarResult) Normalize() {
	if r.Sketches == nil {
		r.Sketches = []Sketch{}
	}
}

// NormalizeAttendance 除 "Y" 外一律视为 "N"
func NormalizeAttendance(v string) string {
	if strings.EqualFold(strings.TrimSpace(v), AttendanceYes) {
		return AttendanceYes
	}
	return AttendanceNo
}

// AttendedList 仅返回出席者（实施结果文档的名单附件使用）
func (p *SeminarPlan) AttendedList() []Attendee {
	out := make([]Attendee, 0, len(p.AttendeeList))
	for _, a := range p.AttendeeList {
		if a.Attended() {
			out = append(out, a)
		}
	}
	return out
}
