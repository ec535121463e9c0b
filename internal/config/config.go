// Package config 提供infrawatch的配置文件加载
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"infrawatch/pkg/common"
	"infrawatch/pkg/monitoring/alerting"
	"infrawatch/pkg/notifier"
)

// ConfigFileName 默认的配置文件名
const ConfigFileName = "infrawatch.yaml"

// DatabaseConfig 数据库连接配置
type DatabaseConfig struct {
	// DSN MySQL连接串
	DSN string `yaml:"dsn"`
	// SlowQueryThresholdMs 慢查询阈值（毫秒），默认200
	SlowQueryThresholdMs int `yaml:"slow_query_threshold_ms"`
	// MaxOpenConns 最大打开连接数
	MaxOpenConns int `yaml:"max_open_conns"`
	// MaxIdleConns 最大空闲连接数
	MaxIdleConns int `yaml:"max_idle_conns"`
}

// RedisConfig Redis连接配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`     // Redis地址，host:port
	Password string `yaml:"password"` // 访问密码
	DB       int    `yaml:"db"`       // 数据库编号
}

// MonitorConfig 监控与告警配置
type MonitorConfig struct {
	// CollectIntervalSeconds 指标采集间隔（秒），默认60
	CollectIntervalSeconds int `yaml:"collect_interval_seconds"`
	// EvaluateIntervalSeconds 告警评估间隔（秒），默认30
	EvaluateIntervalSeconds int `yaml:"evaluate_interval_seconds"`
	// TrendCapacity 趋势历史容量（数据点数），默认10080
	TrendCapacity int `yaml:"trend_capacity"`
	// Rules 内置告警规则的阈值
	Rules alerting.RuleConfig `yaml:"rules"`
}

// NotifyConfig 通知通道配置
type NotifyConfig struct {
	// Email 邮件通道，为nil时不启用
	Email *notifier.EmailConfig `yaml:"email"`
	// Webhook Webhook通道，为nil时不启用
	Webhook *notifier.WebhookConfig `yaml:"webhook"`
}

// Config infrawatch应用配置
type Config struct {
	Logger   *common.LogConfig `yaml:"logger"`
	Database *DatabaseConfig   `yaml:"database"`
	Redis    *RedisConfig      `yaml:"redis"`
	Monitor  *MonitorConfig    `yaml:"monitor"`
	Notify   *NotifyConfig     `yaml:"notify"`
}

// LoadConfig 从指定目录读取配置文件并填充默认值
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(configPath, ConfigFileName))
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// DefaultConfig 返回全默认配置
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Logger == nil {
		logCfg := common.DefaultLogConfig()
		c.Logger = &logCfg
	}
	if c.Database == nil {
		c.Database = &DatabaseConfig{}
	}
	if c.Database.SlowQueryThresholdMs <= 0 {
		c.Database.SlowQueryThresholdMs = 200
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 50
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Redis == nil {
		c.Redis = &RedisConfig{Addr: "127.0.0.1:6379"}
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Monitor == nil {
		c.Monitor = &MonitorConfig{}
	}
	if c.Monitor.CollectIntervalSeconds <= 0 {
		c.Monitor.CollectIntervalSeconds = 60
	}
	if c.Monitor.EvaluateIntervalSeconds <= 0 {
		c.Monitor.EvaluateIntervalSeconds = 30
	}
	if c.Monitor.TrendCapacity <= 0 {
		c.Monitor.TrendCapacity = 10080
	}
	if c.Notify == nil {
		c.Notify = &NotifyConfig{}
	}
}
