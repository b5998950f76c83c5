package middleware

import (
	"github.com/gin-gonic/gin"
)

// API 响应不加载任何子资源
const apiCSP = "default-src 'none'; frame-ancestors 'none'"

// 打印版 HTML 需要内联 window.print() 与 data: 图片
const printCSP = "default-src 'none'; script-src 'unsafe-inline'; style-src 'unsafe-inline'; img-src data:; frame-ancestors 'self'"

// SecurityHeaders 全局安全响应头
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", apiCSP)
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

		c.Next()
	}
}

// PrintPolicy 导出路由使用：放宽 CSP 以便降级的打印版 HTML 可以自动打印
func PrintPolicy() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Content-Security-Policy", printCSP)

		c.Next()
	}
}
