package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"infrawatch/pkg/common"
	"infrawatch/pkg/monitoring/models"
)

// ServerSource 服务器指标来源
type ServerSource interface {
	Collect(ctx context.Context) models.ServerMetrics
}

// DatabaseSource 数据库指标来源
type DatabaseSource interface {
	Collect(ctx context.Context) models.DatabaseMetrics
}

// CacheSource 缓存指标来源
type CacheSource interface {
	Collect(ctx context.Context) models.CacheMetrics
}

// SamplerConfig 采样器配置
type SamplerConfig struct {
	Server  ServerSource   // 服务器指标来源
	DB      DatabaseSource // 数据库指标来源
	Cache   CacheSource    // 缓存指标来源
	Timeout time.Duration  // 单个来源的采集超时，默认5秒
	Logger  *zap.Logger    // 日志记录器
}

// Sampler 把三类指标来源组合成一次完整的指标快照。
// 任何一个来源失败或超时都只会让对应分组保留零值/down状态，
// 不会让整次采样失败。
type Sampler struct {
	server  ServerSource
	db      DatabaseSource
	cache   CacheSource
	timeout time.Duration
	logger  *zap.Logger
}

// NewSampler 创建新的采样器
func NewSampler(config SamplerConfig) *Sampler {
	logger := config.Logger
	if logger == nil {
		logger = common.GetLogger().GetZapLogger("sampler")
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Sampler{
		server:  config.Server,
		db:      config.DB,
		cache:   config.Cache,
		timeout: timeout,
		logger:  logger,
	}
}

// Collect 采集一次完整的指标快照，永远不返回错误
func (s *Sampler) Collect(ctx context.Context) *models.MetricSnapshot {
	snapshot := &models.MetricSnapshot{
		Timestamp: time.Now(),
		Database:  models.DatabaseMetrics{Health: models.ServiceHealth{Status: models.ServiceStatusDown}},
		Cache:     models.CacheMetrics{Health: models.ServiceHealth{Status: models.ServiceStatusDown}},
	}

	if s.server != nil {
		groupCtx, cancel := context.WithTimeout(ctx, s.timeout)
		snapshot.Server = s.server.Collect(groupCtx)
		cancel()
	}

	if s.db != nil {
		groupCtx, cancel := context.WithTimeout(ctx, s.timeout)
		snapshot.Database = s.db.Collect(groupCtx)
		cancel()
	}

	if s.cache != nil {
		groupCtx, cancel := context.WithTimeout(ctx, s.timeout)
		snapshot.Cache = s.cache.Collect(groupCtx)
		cancel()
	}

	return snapshot
}
