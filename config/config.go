package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"db"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Document DocumentConfig `mapstructure:"document"`
	Import   ImportConfig   `mapstructure:"import"`
	Export   ExportConfig   `mapstructure:"export"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"`
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// 存储驱动名称
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// StorageConfig 存储后端选择
//
// Driver 为主存储；主存储在启动时不可达时使用 Fallback（留空表示不降级）。
type StorageConfig struct {
	Driver   string `mapstructure:"driver"`
	Fallback string `mapstructure:"fallback"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// MongoConfig 文档数据库配置
type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// SQLiteConfig 本地降级存储配置
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig Redis 配置（可选，用于键锁与限流）
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DocumentConfig 文档导出配置
type DocumentConfig struct {
	Title        string        `mapstructure:"title"`
	ResultTitle  string        `mapstructure:"result_title"`
	FontPath     string        `mapstructure:"font_path"`
	FontFamily   string        `mapstructure:"font_family"`
	PollAttempts int           `mapstructure:"poll_attempts"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	ImageWidthMM float64       `mapstructure:"image_width_mm"`
	EventLength  time.Duration `mapstructure:"event_length"` // 日历导出时默认活动时长
}

// ImportConfig 表格导入配置
type ImportConfig struct {
	MaxRows        int           `mapstructure:"max_rows"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	RateLimit      int           `mapstructure:"rate_limit"`
	RateWindow     time.Duration `mapstructure:"rate_window"`
}

// ExportConfig 表格导出配置
type ExportConfig struct {
	DefaultMode string `mapstructure:"default_mode"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// .env 仅在本地开发时存在，缺失不是错误
	_ = godotenv.Load()

	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_body_bytes", 16<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("storage.fallback", DriverSQLite)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "seminar")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Seoul")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "seminar")
	v.SetDefault("mongo.connect_timeout", "5s")

	v.SetDefault("sqlite.path", "./data/seminar.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("document.title", "전사 신기술 세미나 실행계획")
	v.SetDefault("document.result_title", "전사 신기술 세미나 실시결과")
	v.SetDefault("document.font_path", "./assets/fonts/NanumGothic.ttf")
	v.SetDefault("document.font_family", "NanumGothic")
	v.SetDefault("document.poll_attempts", 100)
	v.SetDefault("document.poll_interval", "100ms")
	v.SetDefault("document.image_width_mm", 140.0)
	v.SetDefault("document.event_length", "2h")

	v.SetDefault("import.max_rows", 5000)
	v.SetDefault("import.max_upload_bytes", 10<<20)
	v.SetDefault("import.rate_limit", 20)
	v.SetDefault("import.rate_window", "1m")

	v.SetDefault("export.default_mode", "full")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("SEMINAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if !validDriver(c.Storage.Driver) {
		return fmt.Errorf("配置校验失败: storage.driver 不支持 %q", c.Storage.Driver)
	}
	if c.Storage.Fallback != "" {
		if !validDriver(c.Storage.Fallback) {
			return fmt.Errorf("配置校验失败: storage.fallback 不支持 %q", c.Storage.Fallback)
		}
		if c.Storage.Fallback == c.Storage.Driver {
			return fmt.Errorf("配置校验失败: storage.fallback 不能与 storage.driver 相同")
		}
	}
	if c.Document.PollAttempts <= 0 || c.Document.PollInterval <= 0 {
		return fmt.Errorf("配置校验失败: document.poll_attempts 与 document.poll_interval 必须为正数")
	}
	if c.Import.MaxRows <= 0 {
		return fmt.Errorf("配置校验失败: import.max_rows 必须为正数")
	}
	switch c.Export.DefaultMode {
	case "combined", "per_record", "full":
	default:
		return fmt.Errorf("配置校验失败: export.default_mode 不支持 %q", c.Export.DefaultMode)
	}
	return nil
}

func validDriver(name string) bool {
	switch name {
	case DriverPostgres, DriverMongo, DriverSQLite, DriverMemory:
		return true
	}
	return false
}
