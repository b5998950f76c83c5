package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kpcnc-co/seminar/internal/model"
)

// gormCollection PostgreSQL 实现：一张表，记录以 jsonb 存入 body 列
type gormCollection[T any] struct {
	db    *gorm.DB
	table string
	keyOf KeyFunc[T]
}

// NewGormCollection 创建基于 GORM 的集合
func NewGormCollection[T any](db *gorm.DB, table string, keyOf KeyFunc[T]) Collection[T] {
	return &gormCollection[T]{db: db, table: table, keyOf: keyOf}
}

// NewGormRepository 创建 PostgreSQL 存储（表结构由 golang-migrate 维护）
func NewGormRepository(db *gorm.DB) *Repository {
	return &Repository{
		Plan:   NewGormCollection[model.SeminarPlan](db, model.TablePlans, planKey),
		Result: NewGormCollection[model.SeminarResult](db, model.TableResults, resultKey),
		Driver: "postgres",
		ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		close: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

func (r *gormCollection[T]) List(ctx context.Context) ([]Entry[T], error) {
	var rows []model.DocumentRow
	err := r.db.WithContext(ctx).
		Table(r.table).
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return decodeRows[T](rows)
}

func (r *gormCollection[T]) GetByID(ctx context.Context, id string) (*Entry[T], error) {
	// 非法 uuid 在 PostgreSQL 端会报类型错误，这里统一视为不存在
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var rows []model.DocumentRow
	err := r.db.WithContext(ctx).
		Table(r.table).
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return decodeRow[T](rows[0])
}

// FindByKey 走 composite_key 索引，同键取最早插入的一条
func (r *gormCollection[T]) FindByKey(ctx context.Context, key string) (*Entry[T], error) {
	var rows []model.DocumentRow
	err := r.db.WithContext(ctx).
		Table(r.table).
		Where("composite_key = ?", key).
		Order("seq ASC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return decodeRow[T](rows[0])
}

func (r *gormCollection[T]) Insert(ctx context.Context, rec *T) (string, error) {
	row, err := r.encode(rec)
	if err != nil {
		return "", err
	}
	row.ID = uuid.NewString()
	now := time.Now()
	row.CreatedAt, row.UpdatedAt = now, now

	if err := r.db.WithContext(ctx).Table(r.table).Create(row).Error; err != nil {
		return "", err
	}
	return row.ID, nil
}

func (r *gormCollection[T]) Replace(ctx context.Context, id string, rec *T) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	row, err := r.encode(rec)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Table(r.table).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"session":       row.Session,
			"datetime":      row.Datetime,
			"composite_key": row.CompositeKey,
			"body":          row.Body,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormCollection[T]) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	result := r.db.WithContext(ctx).
		Table(r.table).
		Where("id = ?", id).
		Delete(&model.DocumentRow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormCollection[T]) encode(rec *T) (*model.DocumentRow, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("序列化记录失败: %w", err)
	}
	session, datetime := r.keyOf(rec)
	return &model.DocumentRow{
		Session:      session,
		Datetime:     datetime,
		CompositeKey: model.IndexKey(session, datetime),
		Body:         datatypes.JSON(body),
	}, nil
}

// ── 行解码 ──

func decodeRow[T any](row model.DocumentRow) (*Entry[T], error) {
	var rec T
	if err := json.Unmarshal(row.Body, &rec); err != nil {
		return nil, fmt.Errorf("解析记录 %s 失败: %w", row.ID, err)
	}
	return &Entry[T]{ID: row.ID, Record: rec, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}, nil
}

func decodeRows[T any](rows []model.DocumentRow) ([]Entry[T], error) {
	out := make([]Entry[T], 0, len(rows))
	for _, row := range rows {
		e, err := decodeRow[T](row)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}
