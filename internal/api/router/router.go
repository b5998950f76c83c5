package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kpcnc-co/seminar/config"
	"github.com/kpcnc-co/seminar/internal/api/handler"
	"github.com/kpcnc-co/seminar/internal/api/middleware"
	"github.com/kpcnc-co/seminar/internal/dto"
	"github.com/kpcnc-co/seminar/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎；rdb 为 nil 时导入接口不限流
func Setup(cfg *config.Config, h *handler.Handler, rdb *redis.Client, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidators(v); err != nil {
			return nil, fmt.Errorf("注册校验规则失败: %w", err)
		}
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", h.Health.Check)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 세미나 계획
		seminars := v1.Group("/seminars")
		{
			seminars.GET("", h.Seminar.ListPlans)
			seminars.GET("/lookup", h.Seminar.Lookup)
			seminars.GET("/:id", h.Seminar.GetPlan)
			seminars.PUT("", h.Seminar.UpsertPlan)
			seminars.POST("/autosave", h.Seminar.Autosave)
			seminars.POST("/form", h.Seminar.SaveForm)
			seminars.PATCH("/attendance", h.Seminar.ToggleAttendance)
			seminars.DELETE("/:id", h.Seminar.DeletePlan)
			seminars.DELETE("", h.Seminar.DeleteAll)
		}

		// 실시결과与현장 스케치
		results := v1.Group("/results")
		{
			results.GET("", h.Result.FindResult)
			results.PUT("", h.Result.UpsertResult)
			results.POST("/sketches", h.Result.AddSketch)
			results.PUT("/sketches/order", h.Result.ReorderSketches)
			results.PUT("/sketches/:sketch_id", h.Result.UpdateSketch)
			results.DELETE("/sketches/:sketch_id", h.Result.RemoveSketch)
		}

		// 表格导入（限流）
		v1.POST("/import",
			middleware.RateLimit(rdb, cfg.Import.RateLimit, cfg.Import.RateWindow),
			h.Import.ImportFile,
		)

		// 导出
		export := v1.Group("/export", middleware.PrintPolicy())
		{
			export.GET("/excel", h.Export.ExportExcel)
			export.GET("/plans/:id/pdf", h.Export.ExportPlanPDF)
			export.GET("/plans/:id/ics", h.Export.ExportPlanICS)
			export.GET("/results/pdf", h.Export.ExportResultPDF)
		}
	}

	return r, nil
}
