package alerting

import (
	"fmt"

	"go.uber.org/zap"

	"infrawatch/pkg/common"
	"infrawatch/pkg/monitoring/models"
)

// RuleConfig 内置告警规则的阈值配置，零值字段使用默认值
type RuleConfig struct {
	CPUHighPercent         float64 `yaml:"cpu_high_percent"`          // CPU使用率HIGH阈值，默认90
	CPUCriticalPercent     float64 `yaml:"cpu_critical_percent"`      // CPU使用率CRITICAL阈值，默认95
	MemoryHighPercent      float64 `yaml:"memory_high_percent"`       // 内存使用率HIGH阈值，默认90
	MemoryCriticalPercent  float64 `yaml:"memory_critical_percent"`   // 内存使用率CRITICAL阈值，默认95
	DiskHighPercent        float64 `yaml:"disk_high_percent"`         // 磁盘使用率HIGH阈值，默认85
	DiskCriticalPercent    float64 `yaml:"disk_critical_percent"`     // 磁盘使用率CRITICAL阈值，默认95
	DBConnectionPercent    float64 `yaml:"db_connection_percent"`     // 数据库连接占用率阈值，默认80
	CacheHitRatePercent    float64 `yaml:"cache_hit_rate_percent"`    // 缓存命中率下限，默认50
	CacheTrafficGuard      int64   `yaml:"cache_traffic_guard"`       // 缓存命中率规则的最小流量，默认1000
	ResponseTimeMs         float64 `yaml:"response_time_ms"`          // 接口平均响应时间阈值（毫秒），默认2000
	ErrorRatePercent       float64 `yaml:"error_rate_percent"`        // 接口错误率阈值，默认5
	EndpointHitRatePercent float64 `yaml:"endpoint_hit_rate_percent"` // 接口缓存命中率下限，默认70
	EndpointSampleGuard    int64   `yaml:"endpoint_sample_guard"`     // 接口缓存命中率规则的最小请求数，默认200
}

// DefaultRuleConfig 返回内置规则的默认阈值
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		CPUHighPercent:         90,
		CPUCriticalPercent:     95,
		MemoryHighPercent:      90,
		MemoryCriticalPercent:  95,
		DiskHighPercent:        85,
		DiskCriticalPercent:    95,
		DBConnectionPercent:    80,
		CacheHitRatePercent:    50,
		CacheTrafficGuard:      1000,
		ResponseTimeMs:         2000,
		ErrorRatePercent:       5,
		EndpointHitRatePercent: 70,
		EndpointSampleGuard:    200,
	}
}

// applyDefaults 对零值字段填充默认阈值
func (c *RuleConfig) applyDefaults() {
	def := DefaultRuleConfig()
	if c.CPUHighPercent <= 0 {
		c.CPUHighPercent = def.CPUHighPercent
	}
	if c.CPUCriticalPercent <= 0 {
		c.CPUCriticalPercent = def.CPUCriticalPercent
	}
	if c.MemoryHighPercent <= 0 {
		c.MemoryHighPercent = def.MemoryHighPercent
	}
	if c.MemoryCriticalPercent <= 0 {
		c.MemoryCriticalPercent = def.MemoryCriticalPercent
	}
	if c.DiskHighPercent <= 0 {
		c.DiskHighPercent = def.DiskHighPercent
	}
	if c.DiskCriticalPercent <= 0 {
		c.DiskCriticalPercent = def.DiskCriticalPercent
	}
	if c.DBConnectionPercent <= 0 {
		c.DBConnectionPercent = def.DBConnectionPercent
	}
	if c.CacheHitRatePercent <= 0 {
		c.CacheHitRatePercent = def.CacheHitRatePercent
	}
	if c.CacheTrafficGuard <= 0 {
		c.CacheTrafficGuard = def.CacheTrafficGuard
	}
	if c.ResponseTimeMs <= 0 {
		c.ResponseTimeMs = def.ResponseTimeMs
	}
	if c.ErrorRatePercent <= 0 {
		c.ErrorRatePercent = def.ErrorRatePercent
	}
	if c.EndpointHitRatePercent <= 0 {
		c.EndpointHitRatePercent = def.EndpointHitRatePercent
	}
	if c.EndpointSampleGuard <= 0 {
		c.EndpointSampleGuard = def.EndpointSampleGuard
	}
}

// Engine 内置阈值规则的评估引擎。
// 每条规则相互独立，对当前指标逐条检查，命中的规则产生一个告警创建请求。
type Engine struct {
	config RuleConfig
	logger *zap.Logger
}

// NewEngine 创建新的规则评估引擎
func NewEngine(config RuleConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = common.GetLogger().GetZapLogger("alert-rules")
	}
	config.applyDefaults()
	return &Engine{config: config, logger: logger}
}

// Evaluate 对当前指标快照、接口性能统计和整体健康状态评估所有内置规则，
// 返回命中规则对应的告警创建请求
func (e *Engine) Evaluate(snapshot *models.MetricSnapshot, endpointStats []models.EndpointStats, health models.HealthScore) []*models.AlertRequest {
	var requests []*models.AlertRequest

	if snapshot != nil {
		requests = append(requests, e.evaluateServer(snapshot)...)
		requests = append(requests, e.evaluateDatabase(snapshot)...)
		requests = append(requests, e.evaluateCache(snapshot)...)
	}
	requests = append(requests, e.evaluateEndpoints(endpointStats)...)
	requests = append(requests, e.evaluateHealth(health)...)

	if len(requests) > 0 {
		e.logger.Debug("告警规则评估完成", zap.Int("fired", len(requests)))
	}
	return requests
}

// evaluateServer 评估服务器资源规则
func (e *Engine) evaluateServer(snapshot *models.MetricSnapshot) []*models.AlertRequest {
	var requests []*models.AlertRequest
	server := snapshot.Server

	if server.CPUUsagePercent > e.config.CPUHighPercent {
		requests = append(requests, serverRequest(
			"High CPU Usage", "cpu.usage", server.CPUUsagePercent,
			e.config.CPUHighPercent, e.config.CPUCriticalPercent))
	}
	if server.MemoryUsagePercent > e.config.MemoryHighPercent {
		requests = append(requests, serverRequest(
			"High Memory Usage", "memory.percentage", server.MemoryUsagePercent,
			e.config.MemoryHighPercent, e.config.MemoryCriticalPercent))
	}
	if server.DiskUsagePercent > e.config.DiskHighPercent {
		requests = append(requests, serverRequest(
			"High Disk Usage", "disk.percentage", server.DiskUsagePercent,
			e.config.DiskHighPercent, e.config.DiskCriticalPercent))
	}
	return requests
}

// serverRequest 构造服务器资源告警请求，超过critical阈值时升级为CRITICAL
func serverRequest(name, metric string, value, highThreshold, criticalThreshold float64) *models.AlertRequest {
	severity := models.AlertSeverityHigh
	if value > criticalThreshold {
		severity = models.AlertSeverityCritical
	}
	return &models.AlertRequest{
		Name:         name,
		Description:  fmt.Sprintf("%s当前为%.1f%%，超过阈值%.1f%%", metric, value, highThreshold),
		Severity:     severity,
		Category:     models.AlertCategorySystem,
		Source:       "server",
		Metric:       metric,
		CurrentValue: value,
		Threshold: &models.AlertThreshold{
			Metric:   metric,
			Operator: models.ConditionGreaterThan,
			Value:    highThreshold,
			Severity: severity,
		},
	}
}

// evaluateDatabase 评估数据库连接占用规则
func (e *Engine) evaluateDatabase(snapshot *models.MetricSnapshot) []*models.AlertRequest {
	db := snapshot.Database
	if db.MaxConnections <= 0 {
		return nil
	}

	usagePercent := float64(db.ActiveConnections) / float64(db.MaxConnections) * 100
	if usagePercent <= e.config.DBConnectionPercent {
		return nil
	}

	return []*models.AlertRequest{{
		Name:         "High Database Connections",
		Description:  fmt.Sprintf("数据库活跃连接%d已占最大连接数%d的%.1f%%", db.ActiveConnections, db.MaxConnections, usagePercent),
		Severity:     models.AlertSeverityHigh,
		Category:     models.AlertCategoryDatabase,
		Source:       "database",
		Metric:       "connections.active",
		CurrentValue: float64(db.ActiveConnections),
		Threshold: &models.AlertThreshold{
			Metric:   "connections.active",
			Operator: models.ConditionGreaterThan,
			Value:    e.config.DBConnectionPercent,
			Severity: models.AlertSeverityHigh,
		},
	}}
}

// evaluateCache 评估缓存命中率规则。
// 流量下限用于避免低流量预热阶段的误报。
func (e *Engine) evaluateCache(snapshot *models.MetricSnapshot) []*models.AlertRequest {
	cache := snapshot.Cache
	if cache.Hits+cache.Misses <= e.config.CacheTrafficGuard {
		return nil
	}
	if cache.HitRate >= e.config.CacheHitRatePercent {
		return nil
	}

	return []*models.AlertRequest{{
		Name:         "Low Cache Hit Rate",
		Description:  fmt.Sprintf("缓存命中率%.1f%%低于阈值%.1f%%", cache.HitRate, e.config.CacheHitRatePercent),
		Severity:     models.AlertSeverityMedium,
		Category:     models.AlertCategoryCache,
		Source:       "cache",
		Metric:       "redis.hitRate",
		CurrentValue: cache.HitRate,
		Threshold: &models.AlertThreshold{
			Metric:   "redis.hitRate",
			Operator: models.ConditionLessThan,
			Value:    e.config.CacheHitRatePercent,
			Severity: models.AlertSeverityMedium,
		},
	}}
}

// evaluateEndpoints 评估接口性能规则
func (e *Engine) evaluateEndpoints(stats []models.EndpointStats) []*models.AlertRequest {
	var requests []*models.AlertRequest

	for _, stat := range stats {
		if stat.AvgDurationMs > e.config.ResponseTimeMs {
			requests = append(requests, &models.AlertRequest{
				Name:         "High Response Time",
				Description:  fmt.Sprintf("接口%s平均响应时间%.0fms超过阈值%.0fms", stat.Path, stat.AvgDurationMs, e.config.ResponseTimeMs),
				Severity:     models.AlertSeverityHigh,
				Category:     models.AlertCategoryPerformance,
				Source:       stat.Path,
				Metric:       "api.responseTime",
				CurrentValue: stat.AvgDurationMs,
				Metadata:     map[string]string{"endpoint": stat.Path},
			})
		}
		if stat.ErrorRate > e.config.ErrorRatePercent {
			requests = append(requests, &models.AlertRequest{
				Name:         "High Error Rate",
				Description:  fmt.Sprintf("接口%s错误率%.1f%%超过阈值%.1f%%", stat.Path, stat.ErrorRate, e.config.ErrorRatePercent),
				Severity:     models.AlertSeverityHigh,
				Category:     models.AlertCategoryPerformance,
				Source:       stat.Path,
				Metric:       "api.errorRate",
				CurrentValue: stat.ErrorRate,
				Metadata:     map[string]string{"endpoint": stat.Path},
			})
		}
		if stat.RequestCount > e.config.EndpointSampleGuard && stat.CacheHitRate < e.config.EndpointHitRatePercent {
			requests = append(requests, &models.AlertRequest{
				Name:         "Low Cache Hit Rate",
				Description:  fmt.Sprintf("接口%s缓存命中率%.1f%%低于阈值%.1f%%", stat.Path, stat.CacheHitRate, e.config.EndpointHitRatePercent),
				Severity:     models.AlertSeverityMedium,
				Category:     models.AlertCategoryPerformance,
				Source:       stat.Path,
				Metric:       "api.cacheHitRate",
				CurrentValue: stat.CacheHitRate,
				Metadata:     map[string]string{"endpoint": stat.Path},
			})
		}
	}
	return requests
}

// evaluateHealth 评估整体健康状态规则
func (e *Engine) evaluateHealth(health models.HealthScore) []*models.AlertRequest {
	switch health.Status {
	case models.HealthStatusUnhealthy:
		return []*models.AlertRequest{{
			Name:         "System Unhealthy",
			Description:  fmt.Sprintf("整体健康评分%d，系统处于不健康状态", health.Score),
			Severity:     models.AlertSeverityCritical,
			Category:     models.AlertCategorySystem,
			Source:       "system",
			Metric:       "health.score",
			CurrentValue: float64(health.Score),
		}}
	case models.HealthStatusDegraded:
		return []*models.AlertRequest{{
			Name:         "System Degraded",
			Description:  fmt.Sprintf("整体健康评分%d，系统处于降级状态", health.Score),
			Severity:     models.AlertSeverityMedium,
			Category:     models.AlertCategorySystem,
			Source:       "system",
			Metric:       "health.score",
			CurrentValue: float64(health.Score),
		}}
	default:
		return nil
	}
}
