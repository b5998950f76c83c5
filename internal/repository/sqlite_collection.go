package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kpcnc-co/seminar/internal/model"
)

// sqliteCollection 本地降级存储：与 PostgreSQL 同形状的表，body 为 JSON 文本
type sqliteCollection[T any] struct {
	db    *sql.DB
	table string
	keyOf KeyFunc[T]
}

// NewSQLiteCollection 创建基于 SQLite 的集合（表由 database.MigrateSQLite 创建）
func NewSQLiteCollection[T any](db *sql.DB, table string, keyOf KeyFunc[T]) Collection[T] {
	return &sqliteCollection[T]{db: db, table: table, keyOf: keyOf}
}

// NewSQLiteRepository 创建 SQLite 存储
func NewSQLiteRepository(db *sql.DB) *Repository {
	return &Repository{
		Plan:   NewSQLiteCollection[model.SeminarPlan](db, model.TablePlans, planKey),
		Result: NewSQLiteCollection[model.SeminarResult](db, model.TableResults, resultKey),
		Driver: "sqlite",
		ping:   db.PingContext,
		close:  db.Close,
	}
}

const sqliteColumns = "id, body, created_at, updated_at"

func (r *sqliteCollection[T]) List(ctx context.Context) ([]Entry[T], error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY seq ASC", sqliteColumns, r.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry[T]
	for rows.Next() {
		e, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Entry[T]{}
	}
	return out, nil
}

func (r *sqliteCollection[T]) GetByID(ctx context.Context, id string) (*Entry[T], error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", sqliteColumns, r.table), id)
	e, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// FindByKey 走 composite_key 索引，同键取最早插入的一条
func (r *sqliteCollection[T]) FindByKey(ctx context.Context, key string) (*Entry[T], error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE composite_key = ? ORDER BY seq ASC LIMIT 1", sqliteColumns, r.table), key)
	e, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

func (r *sqliteCollection[T]) Insert(ctx context.Context, rec *T) (string, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("序列化记录失败: %w", err)
	}
	session, datetime := r.keyOf(rec)
	id := uuid.NewString()
	now := time.Now().UTC()

	_, err = r.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, session, datetime, composite_key, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, r.table),
		id, session, datetime, model.IndexKey(session, datetime), string(body), now, now)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *sqliteCollection[T]) Replace(ctx context.Context, id string, rec *T) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("序列化记录失败: %w", err)
	}
	session, datetime := r.keyOf(rec)

	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET session = ?, datetime = ?, composite_key = ?, body = ?, updated_at = ?
		WHERE id = ?`, r.table),
		session, datetime, model.IndexKey(session, datetime), string(body), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *sqliteCollection[T]) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.table), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *sqliteCollection[T]) scan(s rowScanner) (*Entry[T], error) {
	var (
		id                   string
		body                 string
		createdAt, updatedAt time.Time
	)
	if err := s.Scan(&id, &body, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var rec T
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, fmt.Errorf("解析记录 %s 失败: %w", id, err)
	}
	return &Entry[T]{ID: id, Record: rec, CreatedAt: createdAt, UpdatedAt: updatedAt}, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
