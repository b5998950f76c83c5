package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// unreachableClient 指向无服务监听的端口，所有命令立即失败
func unreachableClient() *Client {
	return NewFromClient(goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}), zap.NewNop())
}

func TestAcquireLock_BackendDown(t *testing.T) {
	c := unreachableClient()
	defer c.Close()

	_, err := c.AcquireLock(context.Background(), "k", time.Second, time.Second)
	if err == nil {
		t.Fatal("后端不可达时期望返回错误")
	}
	if errors.Is(err, ErrLockTimeout) {
		t.Errorf("连接失败不应报告为锁超时: %v", err)
	}
}

func TestCheckRateLimit_BackendDown(t *testing.T) {
	c := unreachableClient()
	defer c.Close()

	if _, err := c.CheckRateLimit(context.Background(), "k", 1, time.Minute); err == nil {
		t.Error("后端不可达时期望返回错误")
	}
}

// 以下测试需要真实 Redis：TEST_REDIS_ADDR=localhost:6379

func liveClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("未设置 TEST_REDIS_ADDR")
	}
	c := NewFromClient(goredis.NewClient(&goredis.Options{Addr: addr}), zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestAcquireLock_Exclusive(t *testing.T) {
	c := liveClient(t)
	ctx := context.Background()
	key := "test:" + time.Now().Format(time.RFC3339Nano)

	release, err := c.AcquireLock(ctx, key, 5*time.Second, time.Second)
	if err != nil {
		t.Fatalf("首次加锁失败: %v", err)
	}

	if _, err := c.AcquireLock(ctx, key, 5*time.Second, 100*time.Millisecond); !errors.Is(err, ErrLockTimeout) {
		t.Errorf("锁被占用时期望 ErrLockTimeout，实际: %v", err)
	}

	release()
	release() // 幂等

	again, err := c.AcquireLock(ctx, key, 5*time.Second, time.Second)
	if err != nil {
		t.Fatalf("释放后重新加锁失败: %v", err)
	}
	again()
}

func TestCheckRateLimit_Window(t *testing.T) {
	c := liveClient(t)
	ctx := context.Background()
	key := "test:" + time.Now().Format(time.RFC3339Nano)

	for i := 0; i < 2; i++ {
		ok, err := c.CheckRateLimit(ctx, key, 2, time.Minute)
		if err != nil || !ok {
			t.Fatalf("第 %d 次请求期望放行，实际 %v / %v", i+1, ok, err)
		}
	}
	if ok, _ := c.CheckRateLimit(ctx, key, 2, time.Minute); ok {
		t.Error("超过限额后期望拒绝")
	}
}
