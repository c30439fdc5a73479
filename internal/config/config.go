package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Env       string          `mapstructure:"env"` // 环境: development, production
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Keycloak  KeycloakConfig  `mapstructure:"keycloak"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Tasks     TasksConfig     `mapstructure:"tasks"`
	Session   SessionConfig   `mapstructure:"session"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Security  SecurityConfig  `mapstructure:"security"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres, sqlite
	Path            string `mapstructure:"path"`   // sqlite 文件路径
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 秒
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 秒
}

// KeycloakConfig Keycloak 配置
type KeycloakConfig struct {
	Issuer   string `mapstructure:"issuer"`
	JWKSURL  string `mapstructure:"jwks_url"`
	ClientID string `mapstructure:"client_id"`
}

// GatewayConfig 上游网关配置
// 流程引擎、表单 UI 接口和参考数据都挂在同一个网关下
type GatewayConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	EnginePath     string `mapstructure:"engine_path"`
	UIPath         string `mapstructure:"ui_path"`
	RefDataPath    string `mapstructure:"refdata_path"`
	OpDataPath     string `mapstructure:"opdata_path"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// TasksConfig 任务列表配置
type TasksConfig struct {
	PageSize       int    `mapstructure:"page_size"`
	DefaultSort    string `mapstructure:"default_sort"`
	DefaultGroupBy string `mapstructure:"default_group_by"`
	ViewTTLSeconds int    `mapstructure:"view_ttl_seconds"`
}

// SessionConfig 会话上下文配置
type SessionConfig struct {
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

// AlertsConfig 告警上报配置
type AlertsConfig struct {
	QueueSize int `mapstructure:"queue_size"`
	Workers   int `mapstructure:"workers"`
	MaxListed int `mapstructure:"max_listed"`
}

// NATSConfig NATS 事件发布配置,URL 为空时不启用
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	HTTPSRedirect      bool   `mapstructure:"https_redirect"`
	TokenEncryptionKey string `mapstructure:"token_encryption_key"` // 日志中 token 的加密密钥
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	MaxAge         int      `mapstructure:"max_age"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error
	Format string `mapstructure:"format"` // 日志格式: json, text
	Output string `mapstructure:"output"` // 输出位置: stdout, file, both
}

// Load 加载配置,支持 .env、配置文件和环境变量
func Load(configPath string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 如果提供了配置文件路径,从文件加载
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		// 尝试从默认位置加载
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.cop-ui")
		// 忽略配置文件不存在的错误,使用默认值
		_ = v.ReadInConfig()
	}

	// 支持环境变量
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Tasks.PageSize <= 0 {
		return fmt.Errorf("invalid config: tasks.page_size must be positive, got %d", c.Tasks.PageSize)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid config: unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

// IsProduction 判断是否为生产环境
func IsProduction(cfg *Config) bool {
	if cfg == nil {
		return false
	}
	return cfg.Env == "production"
}

// Default 返回默认配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	// 环境变量
	env := v.GetString("env")
	if env == "" {
		env = os.Getenv("APP_ENV")
		if env == "" {
			env = "development"
		}
	}
	v.SetDefault("env", env)

	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	// 数据库默认配置,开发环境使用 sqlite
	if env == "production" {
		v.SetDefault("database.driver", "postgres")
	} else {
		v.SetDefault("database.driver", "sqlite")
	}
	v.SetDefault("database.path", "cop-ui.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "cop_ui")
	v.SetDefault("database.sslmode", "disable")

	// 数据库连接池配置（根据环境设置默认值）
	if env == "production" {
		v.SetDefault("database.max_idle_conns", 20)
		v.SetDefault("database.max_open_conns", 200)
		v.SetDefault("database.conn_max_lifetime", 3600) // 1 小时
		v.SetDefault("database.conn_max_idle_time", 300) // 5 分钟
	} else {
		v.SetDefault("database.max_idle_conns", 10)
		v.SetDefault("database.max_open_conns", 100)
		v.SetDefault("database.conn_max_lifetime", 3600) // 1 小时
		v.SetDefault("database.conn_max_idle_time", 600) // 10 分钟
	}

	// Keycloak 默认配置
	v.SetDefault("keycloak.issuer", "")
	v.SetDefault("keycloak.jwks_url", "")
	v.SetDefault("keycloak.client_id", "cop-ui")

	// 网关默认配置
	v.SetDefault("gateway.base_url", "http://localhost:8000")
	v.SetDefault("gateway.engine_path", "/camunda/engine-rest")
	v.SetDefault("gateway.ui_path", "/ui")
	v.SetDefault("gateway.refdata_path", "/refdata")
	v.SetDefault("gateway.opdata_path", "/opdata")
	v.SetDefault("gateway.timeout_seconds", 30)

	// 任务列表默认配置
	v.SetDefault("tasks.page_size", 20)
	v.SetDefault("tasks.default_sort", "asc-dueDate")
	v.SetDefault("tasks.default_group_by", "category")
	v.SetDefault("tasks.view_ttl_seconds", 1800) // 30 分钟

	// 会话上下文缓存
	v.SetDefault("session.cache_ttl_seconds", 3600)

	// 告警上报
	v.SetDefault("alerts.queue_size", 1000)
	v.SetDefault("alerts.workers", 2)
	v.SetDefault("alerts.max_listed", 50)

	// NATS 默认不启用
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "cop")

	// 追踪默认关闭
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.jaeger_endpoint", "http://localhost:14268/api/traces")

	// 限流
	v.SetDefault("rate_limit.rps", 100)
	v.SetDefault("rate_limit.burst", 200)

	// 安全
	v.SetDefault("security.https_redirect", env == "production")
	v.SetDefault("security.token_encryption_key", "")

	// CORS 默认配置
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization", "X-Request-ID", "Accept-Language"})
	v.SetDefault("cors.max_age", 86400)

	// 日志配置（根据环境设置默认值）
	if env == "production" {
		v.SetDefault("log.level", "warn")
		v.SetDefault("log.format", "json")
	} else {
		v.SetDefault("log.level", "debug")
		v.SetDefault("log.format", "text")
	}
	v.SetDefault("log.output", "stdout")
}
