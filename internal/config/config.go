package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"clientdesk/pkg/config"
)

// InsecureDefaultSecret 未配置 JWT_SECRET 时使用，生产环境拒绝启动
const InsecureDefaultSecret = "clientdesk-insecure-dev-secret"

// SentimentConfig 情感分析配置
type SentimentConfig struct {
	Provider           string        `yaml:"provider"` // huggingface | openai
	HuggingFaceAPIKey  string        `yaml:"huggingface_api_key"`
	HuggingFaceURL     string        `yaml:"huggingface_url"`
	OpenAIAPIKey       string        `yaml:"openai_api_key"`
	OpenAIBaseURL      string        `yaml:"openai_base_url"`
	OpenAIModel        string        `yaml:"openai_model"`
	Timeout            time.Duration `yaml:"timeout"`
	FallbackEnabled    bool          `yaml:"fallback_enabled"`
	FallbackConfidence float64       `yaml:"fallback_confidence"`
	MaxTextLength      int           `yaml:"max_text_length"`
	TrendCap           int           `yaml:"trend_cap"`
	PositiveWords      []string      `yaml:"positive_words"`
	NegativeWords      []string      `yaml:"negative_words"`
}

// HasCredential 当前 provider 是否配置了外部模型凭证
func (c SentimentConfig) HasCredential() bool {
	switch c.Provider {
	case "openai":
		return c.OpenAIAPIKey != ""
	default:
		return c.HuggingFaceAPIKey != ""
	}
}

// OutboxConfig Outbox 调度配置
type OutboxConfig struct {
	Interval   time.Duration `yaml:"interval"`
	BatchSize  int           `yaml:"batch_size"`
	MaxRetries int           `yaml:"max_retries"`
}

// WorkerConfig 消费者配置
type WorkerConfig struct {
	MaxRetries int64         `yaml:"max_retries"`
	DedupTTL   time.Duration `yaml:"dedup_ttl"`
}

type Config struct {
	Env       string               `yaml:"env"`
	Server    config.ServerConfig  `yaml:"server"`
	DB        config.DBConfig      `yaml:"db"`
	JWT       config.JWTConfig     `yaml:"jwt"`
	Redis     config.RedisConfig   `yaml:"redis"`
	MQ        config.MQConfig      `yaml:"mq"`
	Tracing   config.TracingConfig `yaml:"tracing"`
	Sentiment SentimentConfig      `yaml:"sentiment"`
	Outbox    OutboxConfig         `yaml:"outbox"`
	Worker    WorkerConfig         `yaml:"worker"`
}

// Default 返回内置默认值，yaml 中缺省的字段保持这些值
func Default() Config {
	return Config{
		Env:    "local",
		Server: config.ServerConfig{Port: ":5000"},
		DB: config.DBConfig{
			Host:               "localhost",
			Port:               5432,
			User:               "postgres",
			Name:               "clientdesk",
			SSLMode:            "disable",
			SlowQueryThreshold: 100 * time.Millisecond,
		},
		JWT:   config.JWTConfig{TTL: 24 * time.Hour},
		Redis: config.RedisConfig{Addr: "localhost:6379", CacheTTL: 5 * time.Minute},
		Sentiment: SentimentConfig{
			Provider:           "huggingface",
			HuggingFaceURL:     "https://api-inference.huggingface.co/models/nlptown/bert-base-multilingual-uncased-sentiment",
			OpenAIModel:        "gpt-4o-mini",
			Timeout:            10 * time.Second,
			FallbackEnabled:    true,
			FallbackConfidence: 0.85,
			MaxTextLength:      500,
			TrendCap:           30,
		},
		Outbox: OutboxConfig{Interval: time.Second, BatchSize: 100, MaxRetries: 5},
		Worker: WorkerConfig{MaxRetries: 3, DedupTTL: time.Hour},
	}
}

// Load 读取 config/base.yaml + config/<env>.yaml，再用环境变量覆盖
func Load(env, dir string) (*Config, error) {
	raw, err := config.LoadConfig(env, dir)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := config.Decode(raw, &cfg); err != nil {
		return nil, err
	}
	if env != "" {
		cfg.Env = env
	}

	// 未替换的 ${VAR} 占位符视为未配置
	cfg.JWT.Secret = unresolved(cfg.JWT.Secret)
	cfg.DB.Password = unresolved(cfg.DB.Password)

	// 环境变量覆盖
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideTracingFromEnv(&cfg.Tracing)
	overrideSentimentFromEnv(&cfg.Sentiment)

	return &cfg, nil
}

func unresolved(v string) string {
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		return ""
	}
	return v
}

func overrideSentimentFromEnv(cfg *SentimentConfig) {
	if key := os.Getenv("HUGGINGFACE_API_KEY"); key != "" {
		cfg.HuggingFaceAPIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.OpenAIAPIKey = key
	}
	if provider := os.Getenv("SENTIMENT_PROVIDER"); provider != "" {
		cfg.Provider = strings.ToLower(provider)
	}
}

// UsesInsecureSecret 是否仍在使用默认签名密钥（会就地填充默认值）
func (c *Config) UsesInsecureSecret() bool {
	if c.JWT.Secret == "" {
		c.JWT.Secret = InsecureDefaultSecret
	}
	return c.JWT.Secret == InsecureDefaultSecret
}

// Validate 启动前检查，生产环境不允许默认密钥
func (c *Config) Validate() error {
	if c.UsesInsecureSecret() && c.Env == "production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	switch c.Sentiment.Provider {
	case "huggingface", "openai":
	default:
		return fmt.Errorf("unknown sentiment provider %q", c.Sentiment.Provider)
	}
	return nil
}
