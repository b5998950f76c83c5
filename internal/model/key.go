package model

import (
	"strings"

	apperrors "github.com/kpcnc-co/seminar/pkg/errors"
)

// KeySeparator 复合键连接符
const KeySeparator = "_"

// CompositeKey 复合键 = session + "_" + datetime（原样拼接）
//
// 拼接不做转义：("A_B","C") 与 ("A","B_C") 得到同一个键 "A_B_C"。
// 这是既定行为，存储层的键索引必须保持同样的碰撞语义。
func CompositeKey(session, datetime string) string {
	return session + KeySeparator + datetime
}

// Keyed 判断两个字段去除首尾空白后是否都非空（只有这样的记录才参与按键查找）。
// 与 ValidateKey 使用同一规则：能通过校验写入的记录，一定能按键查到。
// 判断时去空白，但 CompositeKey 仍按原值拼接。
func Keyed(session, datetime string) bool {
	return present(session) && present(datetime)
}

func present(v string) bool { return strings.TrimSpace(v) != "" }

// ValidateKey 校验复合键必填字段
func ValidateKey(session, datetime string) error {
	if !present(session) {
		return apperrors.NewValidation(string(FieldSession), "회차는 필수입니다")
	}
	if !present(datetime) {
		return apperrors.NewValidation(string(FieldDatetime), "일시는 필수입니다")
	}
	return nil
}

// Field 记录字段的静态标签，导入导出的标签表以此为准，不从显示文本推断
type Field string

const (
	FieldSession     Field = "session"
	FieldObjective   Field = "objective"
	FieldDatetime    Field = "datetime"
	FieldLocation    Field = "location"
	FieldAttendees   Field = "attendees"
	FieldMainContent Field = "mainContent"
	FieldFuturePlan  Field = "futurePlan"
)

// Set 按字段标签写入计划的基本信息字段；未知标签返回 false
func (p *SeminarPlan) Set(f Field, value string) bool {
	switch f {
	case FieldSession:
		p.Session = value
	case FieldObjective:
		p.Objective = value
	case FieldDatetime:
		p.Datetime = value
	case FieldLocation:
		p.Location = value
	case FieldAttendees:
		p.Attendees = value
	default:
		return false
	}
	return true
}

// Get 按字段标签读取计划的基本信息字段
func (p *SeminarPlan) Get(f Field) string {
	switch f {
	case FieldSession:
		return p.Session
	case FieldObjective:
		return p.Objective
	case FieldDatetime:
		return p.Datetime
	case FieldLocation:
		return p.Location
	case FieldAttendees:
		return p.Attendees
	}
	return ""
}
