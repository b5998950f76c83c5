package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kpcnc-co/seminar/internal/model"
)

// memoryCollection 进程内集合：map + 插入顺序
type memoryCollection[T any] struct {
	mu    sync.RWMutex
	order []string
	items map[string]*Entry[T]
	now   func() time.Time
}

// NewMemoryCollection 创建内存集合
func NewMemoryCollection[T any]() Collection[T] {
	return &memoryCollection[T]{
		items: make(map[string]*Entry[T]),
		now:   time.Now,
	}
}

// NewMemoryRepository 创建内存存储（测试与 storage.driver=memory 使用）
func NewMemoryRepository() *Repository {
	return &Repository{
		Plan:   NewMemoryCollection[model.SeminarPlan](),
		Result: NewMemoryCollection[model.SeminarResult](),
		Driver: "memory",
	}
}

func (c *memoryCollection[T]) List(ctx context.Context) ([]Entry[T], error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry[T], 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.clone(c.items[id]))
	}
	return out, nil
}

func (c *memoryCollection[T]) GetByID(ctx context.Context, id string) (*Entry[T], error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := c.clone(e)
	return &cp, nil
}

func (c *memoryCollection[T]) Insert(ctx context.Context, rec *T) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.NewString()
	now := c.now()
	c.items[id] = &Entry[T]{ID: id, Record: deepCopy(*rec), CreatedAt: now, UpdatedAt: now}
	c.order = append(c.order, id)
	return id, nil
}

func (c *memoryCollection[T]) Replace(ctx context.Context, id string, rec *T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[id]
	if !ok {
		return ErrNotFound
	}
	e.Record = deepCopy(*rec)
	e.UpdatedAt = c.now()
	return nil
}

func (c *memoryCollection[T]) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return ErrNotFound
	}
	delete(c.items, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *memoryCollection[T]) clone(e *Entry[T]) Entry[T] {
	cp := *e
	cp.Record = deepCopy(e.Record)
	return cp
}

// deepCopy 切断与调用方共享的切片，行为与序列化存储的后端保持一致
func deepCopy[T any](v T) T {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}
