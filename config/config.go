package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Prefix 环境变量前缀
const Prefix = "VOTECHAIN"

// Config 客户端配置，全部来自 VOTECHAIN_* 环境变量
//
// 嵌套结构的变量名带上分组前缀，例如 VOTECHAIN_SHELL_ADDR、VOTECHAIN_DB_DRIVER。
type Config struct {
	ServiceURL     string        `envconfig:"SERVICE_URL" default:"http://localhost:5000"`
	PublicBaseURL  string        `envconfig:"PUBLIC_BASE_URL"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"0s"`
	RateLimit      float64       `envconfig:"RATE_LIMIT" default:"0"`
	RateBurst      int           `envconfig:"RATE_BURST" default:"5"`

	Shell    ShellConfig    `envconfig:"SHELL"`
	Database DatabaseConfig `envconfig:"DB"`
	Redis    RedisConfig    `envconfig:"REDIS"`
	Log      LogConfig      `envconfig:"LOG"`
}

// ShellConfig 本地宿主服务配置
type ShellConfig struct {
	Addr           string   `envconfig:"ADDR" default:":8090"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	RateLimit      float64  `envconfig:"RATE_LIMIT" default:"20"`
	RateBurst      int      `envconfig:"RATE_BURST" default:"40"`
}

// DatabaseConfig 回执存档数据库配置
type DatabaseConfig struct {
	// Driver 为空时不启用回执存档
	Driver string `envconfig:"DRIVER" default:"sqlite"`
	DSN    string `envconfig:"DSN" default:"votechain.db"`
}

// RedisConfig 快照缓存配置
type RedisConfig struct {
	Addr     string        `envconfig:"ADDR"`
	Password string        `envconfig:"PASSWORD"`
	DB       int           `envconfig:"DB" default:"0"`
	Mock     bool          `envconfig:"MOCK" default:"false"`
	TTL      time.Duration `envconfig:"SNAPSHOT_TTL" default:"10m"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level     string `envconfig:"LEVEL" default:"info"`
	SentryDSN string `envconfig:"SENTRY_DSN"`
}

// Load 读取配置；当前目录存在 .env 时先加载
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.Wrap(err, "load .env")
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, errors.Wrap(err, "process config")
	}
	if cfg.RequestTimeout < 0 {
		return nil, errors.New("VOTECHAIN_REQUEST_TIMEOUT must not be negative")
	}
	if cfg.RateLimit < 0 {
		return nil, errors.New("VOTECHAIN_RATE_LIMIT must not be negative")
	}
	return &cfg, nil
}
