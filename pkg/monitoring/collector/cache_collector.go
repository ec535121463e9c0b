package collector

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"infrawatch/pkg/common"
	"infrawatch/pkg/monitoring/models"
)

// CacheCollector 缓存指标收集器，通过Redis的PING和INFO命令读取健康与统计
type CacheCollector struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheCollector 创建新的缓存收集器
func NewCacheCollector(client *redis.Client, logger *zap.Logger) *CacheCollector {
	if logger == nil {
		logger = common.GetLogger().GetZapLogger("cache-collector")
	}
	return &CacheCollector{client: client, logger: logger}
}

// Collect 采集一次缓存指标。
// 缓存不可达时返回零值指标并把健康状态标记为down，不返回错误。
func (c *CacheCollector) Collect(ctx context.Context) models.CacheMetrics {
	var m models.CacheMetrics
	m.Health.Status = models.ServiceStatusDown

	if c.client == nil {
		return m
	}

	start := time.Now()
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.logger.Warn("缓存健康检查失败", zap.Error(err))
		return m
	}
	m.Health.Status = models.ServiceStatusUp
	m.Health.LatencyMs = float64(time.Since(start).Microseconds()) / 1000

	if info, err := c.client.Info(ctx, "stats").Result(); err != nil {
		c.logger.Warn("读取缓存统计信息失败", zap.Error(err))
	} else {
		fields := parseInfo(info)
		m.Hits = parseInfoInt(fields, "keyspace_hits")
		m.Misses = parseInfoInt(fields, "keyspace_misses")
		m.OpsPerSec = parseInfoFloat(fields, "instantaneous_ops_per_sec")
		if total := m.Hits + m.Misses; total > 0 {
			m.HitRate = float64(m.Hits) / float64(total) * 100
		}
	}

	if info, err := c.client.Info(ctx, "memory").Result(); err != nil {
		c.logger.Warn("读取缓存内存信息失败", zap.Error(err))
	} else {
		fields := parseInfo(info)
		m.MemoryUsed = parseInfoInt(fields, "used_memory")
		m.MemoryMax = parseInfoInt(fields, "maxmemory")
	}

	return m
}

// parseInfo 解析INFO命令返回的key:value文本
func parseInfo(info string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(info, "\r\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		fields[parts[0]] = strings.TrimSpace(parts[1])
	}
	return fields
}

func parseInfoInt(fields map[string]string, key string) int64 {
	v, err := strconv.ParseInt(fields[key], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInfoFloat(fields map[string]string, key string) float64 {
	v, err := strconv.ParseFloat(fields[key], 64)
	if err != nil {
		return 0
	}
	return v
}
