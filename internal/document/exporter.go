package document

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/kpcnc-co/seminar/pkg/errors"
)

// Probe 可用性探测
type Probe func() bool

// WaitAvailable 有界轮询：最多 attempts 次、间隔 interval，仍不可用则返回 ErrRendererUnavailable
func WaitAvailable(ctx context.Context, probe Probe, attempts int, interval time.Duration) error {
	for i := 0; i < attempts; i++ {
		if probe() {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return apperrors.ErrRendererUnavailable
}

// Exporter 主渲染器 + 打印版 HTML 降级
//
// 主渲染器可用性只探测一次并缓存结果；探测期间的并发请求等待同一次探测。
type Exporter struct {
	primary  *PDFRenderer
	fallback Renderer
	attempts int
	interval time.Duration
	logger   *zap.Logger

	once      sync.Once
	available bool
}

// NewExporter 创建文档导出器
func NewExporter(primary *PDFRenderer, fallback Renderer, attempts int, interval time.Duration, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		primary:  primary,
		fallback: fallback,
		attempts: attempts,
		interval: interval,
		logger:   logger,
	}
}

// Probe 执行（或等待）可用性探测。启动时可在后台调用以预热。
func (e *Exporter) Probe(ctx context.Context) bool {
	e.once.Do(func() {
		// 探测结果全局共享，不随单个请求取消
		err := WaitAvailable(context.WithoutCancel(ctx), e.primary.Available, e.attempts, e.interval)
		e.available = err == nil
		if err != nil {
			e.logger.Warn("PDF 渲染器不可用，文档导出将使用打印版 HTML", zap.Error(err))
		}
	})
	return e.available
}

// Render 优先输出 PDF；主渲染器不可用或出错时静默切换为打印版 HTML
func (e *Exporter) Render(ctx context.Context, doc *Document) (*Rendered, error) {
	if e.Probe(ctx) {
		out, err := e.primary.Render(doc)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, apperrors.ErrRendererUnavailable) {
			e.logger.Error("PDF 渲染失败，改用打印版 HTML", zap.String("file", doc.FileName), zap.Error(err))
		}
	}
	return e.fallback.Render(doc)
}
