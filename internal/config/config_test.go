package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infrawatch/pkg/monitoring/models"
)

// writeConfigFile 在临时目录写入配置文件并返回目录
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644)
	require.NoError(t, err)
	return dir
}

// TestLoadConfig 测试完整配置的加载
func TestLoadConfig(t *testing.T) {
	dir := writeConfigFile(t, `
logger:
  level: debug
  console: true
database:
  dsn: "user:pass@tcp(127.0.0.1:3306)/app?parseTime=true"
  slow_query_threshold_ms: 500
redis:
  addr: "127.0.0.1:6380"
  password: "secret"
  db: 2
monitor:
  collect_interval_seconds: 30
  evaluate_interval_seconds: 15
  trend_capacity: 1440
  rules:
    cpu_high_percent: 85
notify:
  webhook:
    url: "https://hooks.example.com/alert"
    token: "tok"
    min_severity: HIGH
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "user:pass@tcp(127.0.0.1:3306)/app?parseTime=true", cfg.Database.DSN)
	assert.Equal(t, 500, cfg.Database.SlowQueryThresholdMs)
	assert.Equal(t, "127.0.0.1:6380", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 30, cfg.Monitor.CollectIntervalSeconds)
	assert.Equal(t, 15, cfg.Monitor.EvaluateIntervalSeconds)
	assert.Equal(t, 1440, cfg.Monitor.TrendCapacity)
	assert.Equal(t, float64(85), cfg.Monitor.Rules.CPUHighPercent)
	require.NotNil(t, cfg.Notify.Webhook)
	assert.Equal(t, "https://hooks.example.com/alert", cfg.Notify.Webhook.URL)
	assert.Equal(t, models.AlertSeverityHigh, cfg.Notify.Webhook.MinSeverity)
	assert.Nil(t, cfg.Notify.Email)
}

// TestLoadConfigDefaults 测试空配置填充默认值
func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfigFile(t, "{}\n")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Monitor.CollectIntervalSeconds)
	assert.Equal(t, 30, cfg.Monitor.EvaluateIntervalSeconds)
	assert.Equal(t, 10080, cfg.Monitor.TrendCapacity)
	assert.Equal(t, 200, cfg.Database.SlowQueryThresholdMs)
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
	require.NotNil(t, cfg.Logger)
}

// TestLoadConfigMissingFile 测试配置文件不存在时报错
func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}

// TestLoadConfigInvalidYAML 测试非法YAML报错
func TestLoadConfigInvalidYAML(t *testing.T) {
	dir := writeConfigFile(t, "monitor: [not a map\n")
	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

// TestDefaultConfig 测试全默认配置
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 60, cfg.Monitor.CollectIntervalSeconds)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, 10, cfg.Database.MaxIdleConns)
	assert.NotNil(t, cfg.Notify)
}
