package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kpcnc-co/seminar/internal/model"
)

// ErrNotFound 按 ID/键未找到记录（所有后端统一返回该哨兵错误）
var ErrNotFound = errors.New("记录不存在")

// Entry 存储中的一条记录及其存储层标识
type Entry[T any] struct {
	ID        string    `json:"id"`
	Record    T         `json:"record"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Collection 通用文档集合接口。List 按插入顺序返回。
type Collection[T any] interface {
	List(ctx context.Context) ([]Entry[T], error)
	GetByID(ctx context.Context, id string) (*Entry[T], error)
	Insert(ctx context.Context, rec *T) (string, error)
	Replace(ctx context.Context, id string, rec *T) error
	Delete(ctx context.Context, id string) error
}

// KeyIndex 维护 composite_key 索引的后端可直接按键查找。
// 语义与线性扫描一致：同一键下最早插入的记录胜出，未写全两个字段的记录不参与。
type KeyIndex[T any] interface {
	FindByKey(ctx context.Context, key string) (*Entry[T], error)
}

// KeyFunc 取出记录的 (session, datetime)
type KeyFunc[T any] func(rec *T) (session, datetime string)

func planKey(p *model.SeminarPlan) (string, string)     { return p.Session, p.Datetime }
func resultKey(r *model.SeminarResult) (string, string) { return r.Session, r.Datetime }

// Repository 所有集合的聚合入口
type Repository struct {
	Plan   Collection[model.SeminarPlan]
	Result Collection[model.SeminarResult]

	// Driver 实际使用的存储后端名称（回退后可能与配置不同）
	Driver string

	ping  func(ctx context.Context) error
	close func() error
}

// Ping 检查后端可用性
func (r *Repository) Ping(ctx context.Context) error {
	if r.ping == nil {
		return nil
	}
	return r.ping(ctx)
}

// Close 释放后端连接
func (r *Repository) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}
