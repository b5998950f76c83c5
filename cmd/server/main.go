package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kpcnc-co/seminar/config"
	"github.com/kpcnc-co/seminar/internal/api/handler"
	"github.com/kpcnc-co/seminar/internal/api/router"
	"github.com/kpcnc-co/seminar/internal/document"
	"github.com/kpcnc-co/seminar/internal/service"
	"github.com/kpcnc-co/seminar/internal/spreadsheet"
	applogger "github.com/kpcnc-co/seminar/pkg/logger"
	"github.com/kpcnc-co/seminar/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log, "seminar")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 打开存储（主存储不可达时降级）
	repo, err := openStorage(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("存储初始化失败", zap.Error(err))
	}
	logger.Info("存储已就绪", zap.String("driver", repo.Driver))

	// 4. 连接 Redis（可选：未启用或连接失败时使用进程内键锁，导入不限流）
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，键锁降级为进程内锁", zap.Error(err))
			rdb = nil
		}
	}
	// nil *redis.Client 不能直接装进 DistributedLocker 接口
	var locker *service.KeyLocker
	if rdb != nil {
		locker = service.NewKeyLocker(rdb, cfg.Redis.LockTTL, logger)
	} else {
		locker = service.NewKeyLocker(nil, cfg.Redis.LockTTL, logger)
	}

	// 5. 文档导出：PDF 主渲染器 + 打印版 HTML 降级
	exporter := document.NewExporter(
		document.NewPDFRenderer(cfg.Document.FontPath, cfg.Document.FontFamily, cfg.Document.ImageWidthMM, logger),
		document.NewHTMLRenderer(),
		cfg.Document.PollAttempts,
		cfg.Document.PollInterval,
		logger,
	)
	go exporter.Probe(context.Background())

	loc, err := time.LoadLocation(cfg.Database.Timezone)
	if err != nil {
		logger.Warn("时区无效，使用本地时区", zap.String("timezone", cfg.Database.Timezone), zap.Error(err))
		loc = time.Local
	}

	// 6. 依赖注入: Repository → Service → Handler
	svc := service.NewService(service.Deps{
		Repo:     repo,
		Locker:   locker,
		Codec:    spreadsheet.NewCodec(spreadsheet.DefaultMarkers().WithTitle(cfg.Document.Title)),
		Exporter: exporter,
		MaxRows:  cfg.Import.MaxRows,
		Export: service.ExportOptions{
			Titles:      document.Titles{Plan: cfg.Document.Title, Result: cfg.Document.ResultTitle},
			DefaultMode: service.ExportMode(cfg.Export.DefaultMode),
			EventLength: cfg.Document.EventLength,
			Location:    loc,
		},
	}, logger)
	h := handler.NewHandler(svc, repo, cfg.Import.MaxUploadBytes)

	// 7. 初始化路由
	engine, err := router.Setup(cfg, h, rdb, logger)
	if err != nil {
		logger.Fatal("路由初始化失败", zap.Error(err))
	}

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭存储连接
	if err := repo.Close(); err != nil {
		logger.Error("关闭存储失败", zap.Error(err))
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
