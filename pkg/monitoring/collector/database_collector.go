package collector

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"infrawatch/pkg/common"
	"infrawatch/pkg/monitoring/models"
)

// DatabaseCollectorConfig 数据库收集器配置
type DatabaseCollectorConfig struct {
	DB                 *gorm.DB      // 数据库连接
	SlowQueryThreshold time.Duration // 慢查询阈值，默认200ms
	Logger             *zap.Logger   // 日志记录器
}

// DatabaseCollector 数据库指标收集器。
// 连接池统计来自database/sql，查询耗时统计由GORM监控插件通过
// RecordOperation上报后在内存中聚合。
type DatabaseCollector struct {
	db                 *gorm.DB
	slowQueryThreshold time.Duration
	logger             *zap.Logger

	mu            sync.Mutex
	queryCount    int64
	totalDuration float64 // 毫秒
	slowQueries   int64
}

// NewDatabaseCollector 创建新的数据库收集器
func NewDatabaseCollector(config DatabaseCollectorConfig) *DatabaseCollector {
	logger := config.Logger
	if logger == nil {
		logger = common.GetLogger().GetZapLogger("database-collector")
	}
	threshold := config.SlowQueryThreshold
	if threshold <= 0 {
		threshold = 200 * time.Millisecond
	}

	return &DatabaseCollector{
		db:                 config.DB,
		slowQueryThreshold: threshold,
		logger:             logger,
	}
}

// SlowQueryThreshold 返回慢查询阈值
func (c *DatabaseCollector) SlowQueryThreshold() time.Duration {
	return c.slowQueryThreshold
}

// RecordOperation 记录一次数据库操作的耗时，由GORM监控插件调用
func (c *DatabaseCollector) RecordOperation(durationMs float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queryCount++
	c.totalDuration += durationMs
	if durationMs >= float64(c.slowQueryThreshold.Milliseconds()) {
		c.slowQueries++
	}
}

// Collect 采集一次数据库指标。
// 数据库不可达时返回零值指标并把健康状态标记为down，不返回错误。
func (c *DatabaseCollector) Collect(ctx context.Context) models.DatabaseMetrics {
	var m models.DatabaseMetrics
	m.Health.Status = models.ServiceStatusDown

	if c.db == nil {
		return m
	}

	sqlDB, err := c.db.DB()
	if err != nil {
		c.logger.Warn("获取底层数据库连接失败", zap.Error(err))
		return m
	}

	start := time.Now()
	if err := sqlDB.PingContext(ctx); err != nil {
		c.logger.Warn("数据库健康检查失败", zap.Error(err))
		return m
	}
	m.Health.Status = models.ServiceStatusUp
	m.Health.LatencyMs = float64(time.Since(start).Microseconds()) / 1000

	stats := sqlDB.Stats()
	m.ActiveConnections = stats.InUse
	m.IdleConnections = stats.Idle
	m.TotalConnections = stats.OpenConnections
	m.MaxConnections = stats.MaxOpenConnections

	// 数据库存储大小
	var storageBytes int64
	row := c.db.WithContext(ctx).Raw(
		"SELECT COALESCE(SUM(data_length + index_length), 0) FROM information_schema.tables WHERE table_schema = DATABASE()",
	).Row()
	if err := row.Scan(&storageBytes); err != nil {
		c.logger.Warn("查询数据库存储大小失败", zap.Error(err))
	} else {
		m.StorageBytes = storageBytes
	}

	c.mu.Lock()
	if c.queryCount > 0 {
		m.AvgQueryTimeMs = c.totalDuration / float64(c.queryCount)
	}
	m.SlowQueryCount = c.slowQueries
	c.mu.Unlock()

	return m
}
