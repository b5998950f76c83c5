package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kpcnc-co/seminar/pkg/response"
)

// HealthChecker 存储后端探活（*repository.Repository 满足该接口）
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查
type HealthHandler struct {
	checker HealthChecker
	driver  string
}

// NewHealthHandler 创建 HealthHandler；driver 为实际使用的存储后端名称
func NewHealthHandler(checker HealthChecker, driver string) *HealthHandler {
	return &HealthHandler{checker: checker, driver: driver}
}

// Check 检查存储可用性
// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.checker.Ping(ctx); err != nil {
		response.ServiceUnavailable(c, codeStorage, "存储服务不可用", err.Error())
		return
	}
	response.OK(c, gin.H{"status": "ok", "storage": h.driver})
}
