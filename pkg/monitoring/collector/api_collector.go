package collector

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"infrawatch/pkg/common"
	"infrawatch/pkg/monitoring/models"
)

// APICollector 接口性能指标收集器。
// 被动接收每次请求的上报，在内存中按接口路径聚合请求数、耗时、
// 错误率和缓存命中率，供告警规则评估使用。
type APICollector struct {
	logger *zap.Logger

	mu    sync.RWMutex
	stats map[string]*endpointAccumulator
}

// endpointAccumulator 单个接口的累积计数
type endpointAccumulator struct {
	requestCount    int64
	totalDurationMs float64
	errorCount      int64
	cacheHits       int64
	cacheLookups    int64
}

// NewAPICollector 创建新的API收集器
func NewAPICollector(logger *zap.Logger) *APICollector {
	if logger == nil {
		logger = common.GetLogger().GetZapLogger("api-collector")
	}
	return &APICollector{
		logger: logger,
		stats:  make(map[string]*endpointAccumulator),
	}
}

// RecordRequest 记录一次接口调用。
// cacheLookup表示该请求是否查询过缓存，cacheHit仅在cacheLookup为true时有意义。
func (c *APICollector) RecordRequest(path string, durationMs float64, isError, cacheLookup, cacheHit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	acc, exists := c.stats[path]
	if !exists {
		acc = &endpointAccumulator{}
		c.stats[path] = acc
	}

	acc.requestCount++
	acc.totalDurationMs += durationMs
	if isError {
		acc.errorCount++
	}
	if cacheLookup {
		acc.cacheLookups++
		if cacheHit {
			acc.cacheHits++
		}
	}
}

// Stats 返回所有接口的聚合统计，按路径排序保证结果确定
func (c *APICollector) Stats() []models.EndpointStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]models.EndpointStats, 0, len(c.stats))
	for path, acc := range c.stats {
		stat := models.EndpointStats{
			Path:         path,
			RequestCount: acc.requestCount,
		}
		if acc.requestCount > 0 {
			stat.AvgDurationMs = acc.totalDurationMs / float64(acc.requestCount)
			stat.ErrorRate = float64(acc.errorCount) / float64(acc.requestCount) * 100
		}
		if acc.cacheLookups > 0 {
			stat.CacheHitRate = float64(acc.cacheHits) / float64(acc.cacheLookups) * 100
		}
		result = append(result, stat)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Path < result[j].Path
	})
	return result
}

// Reset 清空所有累积统计
func (c *APICollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = make(map[string]*endpointAccumulator)
}
