package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kpcnc-co/seminar/internal/model"
	"github.com/kpcnc-co/seminar/internal/repository"
)

// ── Mock 故障集合 ──

var errBackendDown = errors.New("backend unreachable")

// failingCollection 所有操作均返回后端错误
type failingCollection[T any] struct{}

func (failingCollection[T]) List(context.Context) ([]repository.Entry[T], error) {
	return nil, errBackendDown
}

func (failingCollection[T]) GetByID(context.Context, string) (*repository.Entry[T], error) {
	return nil, errBackendDown
}

func (failingCollection[T]) Insert(context.Context, *T) (string, error) {
	return "", errBackendDown
}

func (failingCollection[T]) Replace(context.Context, string, *T) error { return errBackendDown }

func (failingCollection[T]) Delete(context.Context, string) error { return errBackendDown }

// panickingCollection 写入时 panic，用于验证自动保存不会把异常抛给调用方
type panickingCollection[T any] struct {
	repository.Collection[T]
}

func (panickingCollection[T]) Insert(context.Context, *T) (string, error) {
	panic("driver exploded")
}

// writeFailingCollection 读取正常、写入失败
type writeFailingCollection[T any] struct {
	repository.Collection[T]
}

func (writeFailingCollection[T]) Insert(context.Context, *T) (string, error) {
	return "", errBackendDown
}

func (writeFailingCollection[T]) Replace(context.Context, string, *T) error { return errBackendDown }

// slowReadCollection 读取后停顿，拉开读-改-写之间的窗口
type slowReadCollection[T any] struct {
	repository.Collection[T]
	delay time.Duration
}

func (c slowReadCollection[T]) List(ctx context.Context) ([]repository.Entry[T], error) {
	entries, err := c.Collection.List(ctx)
	time.Sleep(c.delay)
	return entries, err
}

// missingOnDeleteCollection 指定 ID 的删除返回 ErrNotFound，模拟并发删除
type missingOnDeleteCollection[T any] struct {
	repository.Collection[T]
	missing string
}

func (c missingOnDeleteCollection[T]) Delete(ctx context.Context, id string) error {
	if id == c.missing {
		return repository.ErrNotFound
	}
	return c.Collection.Delete(ctx, id)
}

func newFailingRepo() *repository.Repository {
	return &repository.Repository{
		Plan:   failingCollection[model.SeminarPlan]{},
		Result: failingCollection[model.SeminarResult]{},
		Driver: "failing",
	}
}

// ── Mock 分布式锁 ──

type mockDistLocker struct {
	mu       sync.Mutex
	err      error
	acquired []string
	released int
}

func (m *mockDistLocker) AcquireLock(_ context.Context, key string, _, _ time.Duration) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.acquired = append(m.acquired, key)
	return func() {
		m.mu.Lock()
		m.released++
		m.mu.Unlock()
	}, nil
}
