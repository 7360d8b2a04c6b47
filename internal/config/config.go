// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Chat     ChatConfig     `mapstructure:"chat"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret          string `mapstructure:"secret"`
	TokenExpireDays int    `mapstructure:"token_expire_days"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储回复任务队列相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
	// Concurrency 是 worker 同时处理的任务数上限。
	Concurrency int `mapstructure:"concurrency"`
	// MaxAttempts 是每个任务的最大尝试次数，超过后任务被保留待人工排查。
	MaxAttempts int `mapstructure:"max_attempts"`
	// RetryBackoffMs 是指数退避的初始等待时间（毫秒）。
	RetryBackoffMs int `mapstructure:"retry_backoff_ms"`
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	// TimeoutSeconds 是单次补全调用的超时时间。
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// ChatConfig 存储聊天业务相关的配置。
type ChatConfig struct {
	// FreeDailyLimit 是 basic 套餐用户每天可发送的消息数上限。
	FreeDailyLimit int `mapstructure:"free_daily_limit"`
	// HistorySize 是构建上下文时取用的最近消息条数。
	HistorySize int `mapstructure:"history_size"`
	// CacheTTLSeconds 是聊天室列表缓存的过期时间（秒）。
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

// Load 从指定的路径读取 YAML 文件并解析为 Config。
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults 填充未配置项的默认值。
func (c *Config) applyDefaults() {
	if c.Kafka.Concurrency <= 0 {
		c.Kafka.Concurrency = 2
	}
	if c.Kafka.MaxAttempts <= 0 {
		c.Kafka.MaxAttempts = 2
	}
	if c.Kafka.RetryBackoffMs <= 0 {
		c.Kafka.RetryBackoffMs = 2000
	}
	if c.Chat.FreeDailyLimit <= 0 {
		c.Chat.FreeDailyLimit = 5
	}
	if c.Chat.HistorySize <= 0 {
		c.Chat.HistorySize = 10
	}
	if c.Chat.CacheTTLSeconds <= 0 {
		c.Chat.CacheTTLSeconds = 600
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = 60
	}
	if c.JWT.TokenExpireDays <= 0 {
		c.JWT.TokenExpireDays = 7
	}
}
