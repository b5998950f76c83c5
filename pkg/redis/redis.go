package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kpcnc-co/seminar/config"
)

// Client Redis 客户端封装
// 当前用于复合键分布式锁与导入接口限流
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// NewFromClient 包装已有的 go-redis 客户端（测试注入用）
func NewFromClient(rdb *goredis.Client, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// ── 复合键锁 ──

const lockPrefix = "seminar:lock:"

// ErrLockTimeout 在等待时间内未能取得锁
var ErrLockTimeout = errors.New("等待复合键锁超时")

// releaseScript 仅当锁仍属于自己（token 一致）时才删除
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// AcquireLock 以 SET NX PX 获取锁，冲突时按固定间隔重试直到 ctx 结束或超过 wait。
// 返回的 release 函数幂等；锁过期后 release 不会误删他人的锁。
func (c *Client) AcquireLock(ctx context.Context, key string, ttl, wait time.Duration) (release func(), err error) {
	token := uuid.NewString()
	redisKey := lockPrefix + key
	deadline := time.Now().Add(wait)

	for {
		ok, err := c.rdb.SetNX(ctx, redisKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("获取锁失败: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(25 * time.Millisecond):
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		if err := releaseScript.Run(context.Background(), c.rdb, []string{redisKey}, token).Err(); err != nil {
			c.logger.Warn("释放复合键锁失败", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// ── 限流 ──

const rateLimitPrefix = "seminar:ratelimit:"

// CheckRateLimit 滑动窗口限流：窗口内请求数未超过 limit 时返回 true。
// 基于有序集合，成员为请求时间戳，窗口外的成员在每次检查时清理。
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	redisKey := rateLimitPrefix + key
	minScore := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", minScore)
	count := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, goredis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return count.Val() < int64(limit), nil
}

// Ping 健康检查
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
