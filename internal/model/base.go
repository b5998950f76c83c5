package model

import (
	"time"

	"gorm.io/datatypes"
)

// BaseModel 通用审计字段（所有持久化行嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ── 关系型存储行 ──

// DocumentRow seminar_plans / seminar_results 两张表共用的行结构
//
// 记录本体整体存入 Body（jsonb），Session/Datetime/CompositeKey 只为查询冗余保存。
// CompositeKey 仅在两个字段都非空时写入，否则为 NULL，不参与按键查找。
type DocumentRow struct {
	ID           string         `gorm:"type:uuid;primaryKey"        json:"id"`
	Seq          int64          `gorm:"->"                          json:"-"` // 数据库自增，决定插入顺序
	Session      string         `gorm:"size:200;not null"           json:"session"`
	Datetime     string         `gorm:"size:200;not null"           json:"datetime"`
	CompositeKey *string        `gorm:"size:401;index"              json:"composite_key,omitempty"`
	Body         datatypes.JSON `gorm:"type:jsonb;not null"         json:"body"`
	BaseModel
}

// 表名
const (
	TablePlans   = "seminar_plans"
	TableResults = "seminar_results"
)

// IndexKey 返回可写入 composite_key 列的值；字段不全时返回 nil
func IndexKey(session, datetime string) *string {
	if !Keyed(session, datetime) {
		return nil
	}
	k := CompositeKey(session, datetime)
	return &k
}
