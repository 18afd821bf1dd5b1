package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name" env:"APP_NAME"`          // 应用程序名称
	Version     string `yaml:"version" env:"API_VERSION"`    // API 版本
	Environment string `yaml:"environment" env:"APP_ENV"`    // 运行环境 (例如: "dev", "production")
}

// ServerConfig 定义了两个进程监听的地址。
type ServerConfig struct {
	APIAddress string `yaml:"apiAddress" env:"API_ADDR"` // API 进程地址，默认 ":8000"
	UIAddress  string `yaml:"uiAddress" env:"UI_ADDR"`   // UI 进程地址，默认 ":8501"
	APIURL     string `yaml:"apiURL" env:"API_URL"`      // UI 访问 API 的基准 URL
	StaticDir  string `yaml:"staticDir" env:"STATIC_DIR"`
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置。
type MinIOConfig struct {
	Enabled   bool   `yaml:"enabled" env:"MINIO_ENABLED"`
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT"` // MinIO 服务端点
	AccessKey string `yaml:"accessKey" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secretKey" env:"MINIO_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET"` // 默认存储桶名称
	Secure    bool   `yaml:"secure" env:"MINIO_SECURE"` // 是否使用HTTPS
}

// StorageConfig 定义了数据集与报告的存放位置。
type StorageConfig struct {
	Dir         string      `yaml:"dir" env:"STORAGE_DIR"`
	MaxUploadMB int         `yaml:"maxUploadMB"`
	MinIO       MinIOConfig `yaml:"minio"`
}

// DatabaseConfig 定义了关系数据库配置。Driver 为 "sqlite" 或 "mysql"。
type DatabaseConfig struct {
	Driver          string `yaml:"driver" env:"DATABASE_DRIVER"`
	DSN             string `yaml:"dsn" env:"DATABASE_URL"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address" env:"REDIS_ADDR"`
	URL      string `yaml:"url" env:"REDIS_URL"` // redis://host:port/db，设置后优先于 Address
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
}

// MongoConfig 定义了 MongoDB 数据库的连接配置。
type MongoConfig struct {
	Address    string `yaml:"address" env:"MONGO_URI"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers     []string `yaml:"brokers" env:"KAFKA_BROKERS" envSeparator:","`
	JobsTopic   string   `yaml:"jobsTopic"`
	EventsTopic string   `yaml:"eventsTopic"`
	GroupID     string   `yaml:"groupID"`
}

// EtcdConfig 定义了 Etcd 服务发现的连接配置。
type EtcdConfig struct {
	Endpoints []string `yaml:"endpoints" env:"ETCD_ENDPOINTS" envSeparator:","`
	TTL       int64    `yaml:"ttl"`
}

// QueueConfig 描述异步任务模式。
type QueueConfig struct {
	UseRedis   bool   `yaml:"useRedis" env:"USE_REDIS"`
	Backend    string `yaml:"backend" env:"QUEUE_BACKEND"` // "redis" 或 "kafka"
	Name       string `yaml:"name"`
	JobStore   string `yaml:"jobStore" env:"JOB_STORE"` // "sql"、"redis" 或 "mongo"
	JobTimeout int    `yaml:"jobTimeout"`                // 秒
	Events     bool   `yaml:"events"`                    // 是否向 Kafka 发布任务事件
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	SQL     DatabaseConfig `yaml:"sql"`
	Redis   RedisConfig    `yaml:"redis"`
	MongoDB MongoConfig    `yaml:"mongodb"`
	Kafka   KafkaConfig    `yaml:"kafka"`
	Etcd    EtcdConfig     `yaml:"etcd"`
}

// AuthConfig 用于配置 JWT 认证。
type AuthConfig struct {
	JwtSecret          string `yaml:"jwtSecret" env:"JWT_SECRET"`
	JwtAlgorithm       string `yaml:"jwtAlgorithm" env:"JWT_ALGORITHM"`
	AccessTokenMinutes int    `yaml:"accessTokenMinutes" env:"ACCESS_TOKEN_EXPIRE_MINUTES"`
}

// CORSConfig 定义允许跨域访问的来源，逗号分隔。
type CORSConfig struct {
	Origins string `yaml:"origins" env:"CORS_ORIGINS"`
}

// EDAConfig 对应分析步骤的参数。
type EDAConfig struct {
	SampleRows         int `yaml:"sampleRows"`
	MaxCols            int `yaml:"maxCols"`
	MaxNumericHists    int `yaml:"maxNumericHists"`
	MaxCategoricalBars int `yaml:"maxCategoricalBars"`
	CorrTopK           int `yaml:"corrTopK"`
	CacheSize          int `yaml:"cacheSize"`
}

// NarrativeConfig 控制叙述生成方式。
type NarrativeConfig struct {
	Mode        string `yaml:"mode" env:"NARRATIVE_MODE"`       // "rule" 或 "llm"
	Provider    string `yaml:"provider" env:"LLM_PROVIDER"`     // "ollama"、"openai" 或 "gemini"
	Model       string `yaml:"model" env:"LLM_MODEL"`           // openai / gemini 使用的模型
	APIKey      string `yaml:"apiKey" env:"LLM_API_KEY"`        // openai / gemini 的密钥
	BaseURL     string `yaml:"baseURL" env:"LLM_BASE_URL"`      // OpenAI 兼容服务的地址，可为空
	OllamaURL   string `yaml:"ollamaURL" env:"OLLAMA_HOST"`
	OllamaModel string `yaml:"ollamaModel" env:"OLLAMA_MODEL"`
}

// OfficeConfig 配置 PPTX 输出。
type OfficeConfig struct {
	LicenseKey string `yaml:"licenseKey" env:"UNIOFFICE_LICENSE_KEY"`
	Theme      string `yaml:"theme"`
	Color      string `yaml:"color"`
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Databases  DatabaseConfigs  `yaml:"databases"`
	Queue      QueueConfig      `yaml:"queue"`
	Auth       AuthConfig       `yaml:"auth"`
	CORS       CORSConfig       `yaml:"cors"`
	EDA        EDAConfig        `yaml:"eda"`
	Narrative  NarrativeConfig  `yaml:"narrative"`
	Office     OfficeConfig     `yaml:"office"`
	Logger     LoggerConfig     `yaml:"logger"`
	Middleware MiddlewareConfig `yaml:"middleware"`
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig 定义了限流器的配置。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Algorithm   string            `yaml:"algorithm"` // 支持: "fixedWindow", "tokenBucket"
	FixedWindow FixedWindowConfig `yaml:"fixedWindow"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
}

// FixedWindowConfig 定义了固定窗口计数器算法的配置。
type FixedWindowConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"` // 例如: "1m", "30s"
}

// TokenBucketConfig 定义了令牌桶算法的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig 定义了熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// Default 返回一份完整的默认配置，与开发环境一致。
func Default() *AppConfig {
	return &AppConfig{
		App: AppInfo{Name: "Auto EDA & Storytelling", Version: "0.1.0", Environment: "dev"},
		Server: ServerConfig{
			APIAddress: ":8000",
			UIAddress:  ":8501",
			APIURL:     "http://127.0.0.1:8000",
			StaticDir:  "static",
		},
		Storage: StorageConfig{Dir: "storage", MaxUploadMB: 50, MinIO: MinIOConfig{Bucket: "auto-eda"}},
		Databases: DatabaseConfigs{
			SQL:     DatabaseConfig{Driver: "sqlite", DSN: "dev.db", MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: 3600},
			Redis:   RedisConfig{Address: "localhost:6379"},
			MongoDB: MongoConfig{Database: "auto_eda", Collection: "jobs"},
			Kafka:   KafkaConfig{JobsTopic: "eda_jobs", EventsTopic: "eda_job_events", GroupID: "eda-worker"},
			Etcd:    EtcdConfig{TTL: 10},
		},
		Queue:     QueueConfig{Backend: "redis", Name: "default", JobStore: "sql", JobTimeout: 900},
		Auth:      AuthConfig{JwtSecret: "change-me", JwtAlgorithm: "HS256", AccessTokenMinutes: 60},
		CORS:      CORSConfig{Origins: "http://127.0.0.1:8501,http://localhost:8501"},
		EDA:       EDAConfig{SampleRows: 50000, MaxCols: 100, MaxNumericHists: 4, MaxCategoricalBars: 4, CorrTopK: 20, CacheSize: 32},
		Narrative: NarrativeConfig{Mode: "rule", Provider: "ollama", OllamaModel: "llama3"},
		Office:    OfficeConfig{Theme: "light", Color: "#1f77b4"},
		Logger:    LoggerConfig{Level: "info"},
		Middleware: MiddlewareConfig{
			CircuitBreaker: CircuitBreakerConfig{FailureThreshold: 5, SuccessThreshold: 2, Timeout: "30s"},
		},
	}
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件，然后用环境变量覆盖。
// 文件不存在时使用默认值。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	cfg := Default()

	yamlFile, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// 没有配置文件时只使用默认值和环境变量
	default:
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}

	// 仅覆盖已设置的环境变量
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("解析环境变量失败: %w", err)
	}
	return cfg, nil
}

// Path 返回配置文件路径：命令行参数优先，其次 EDA_CONFIG，最后 config.yaml。
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv("EDA_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

// AllowedOrigins 拆分逗号分隔的 CORS 来源。
func (c CORSConfig) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.Origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// QueueEnabled 表示是否启用异步任务队列。
func (q QueueConfig) QueueEnabled() bool {
	return q.UseRedis
}
