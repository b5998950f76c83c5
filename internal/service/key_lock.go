package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/kpcnc-co/seminar/pkg/errors"
	"github.com/kpcnc-co/seminar/pkg/redis"
)

// DistributedLocker 跨副本的键锁（Redis 实现见 pkg/redis）
type DistributedLocker interface {
	AcquireLock(ctx context.Context, key string, ttl, wait time.Duration) (release func(), err error)
}

// KeyLocker 按复合键串行化 "查找 + 写入"
//
// 进程内始终加锁；配置了 Redis 时再加一层分布式锁。
// Redis 连接失败时降级为仅进程内锁，等待超时则返回 StorageError。
type KeyLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock

	dist   DistributedLocker
	ttl    time.Duration
	logger *zap.Logger
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewKeyLocker 创建键锁。dist 为 nil 时仅进程内加锁。
func NewKeyLocker(dist DistributedLocker, ttl time.Duration, logger *zap.Logger) *KeyLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeyLocker{
		locks:  make(map[string]*keyLock),
		dist:   dist,
		ttl:    ttl,
		logger: logger,
	}
}

// Lock 获取 key 上的锁，返回的 unlock 必须调用且只调用一次
func (l *KeyLocker) Lock(ctx context.Context, key string) (unlock func(), err error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, kl)
		return nil, ctx.Err()
	}

	releaseDist := func() {}
	if l.dist != nil {
		rel, err := l.dist.AcquireLock(ctx, key, l.ttl, l.ttl)
		switch {
		case err == nil:
			releaseDist = rel
		case errors.Is(err, redis.ErrLockTimeout), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			<-kl.ch
			l.release(key, kl)
			return nil, apperrors.WrapStorage("lock", err)
		default:
			l.logger.Warn("分布式锁不可用，仅使用进程内锁", zap.String("key", key), zap.Error(err))
		}
	}

	return func() {
		releaseDist()
		<-kl.ch
		l.release(key, kl)
	}, nil
}

func (l *KeyLocker) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}
