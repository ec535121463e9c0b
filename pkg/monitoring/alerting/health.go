// Package alerting 提供告警规则评估、告警生命周期管理和健康评分
package alerting

import (
	"infrawatch/pkg/monitoring/models"
)

// 健康评分的扣分项
const (
	deductionHighCPU       = 20 // CPU使用率超过90%
	deductionHighMemory    = 20 // 内存使用率超过90%
	deductionHighDisk      = 15 // 磁盘使用率超过85%
	deductionDatabaseDown  = 30 // 数据库不健康
	deductionCacheDown     = 15 // 缓存不健康
	deductionCriticalAlert = 25 // 每个活跃的CRITICAL告警
	deductionHighAlert     = 10 // 每个活跃的HIGH告警
)

// HealthScore 根据最新的指标快照和当前活跃告警计算0-100的健康评分。
// 纯函数，无IO，各扣分项累加后下限为0。
func HealthScore(snapshot *models.MetricSnapshot, activeAlerts []*models.Alert) models.HealthScore {
	score := 100

	if snapshot != nil {
		if snapshot.Server.CPUUsagePercent > 90 {
			score -= deductionHighCPU
		}
		if snapshot.Server.MemoryUsagePercent > 90 {
			score -= deductionHighMemory
		}
		if snapshot.Server.DiskUsagePercent > 85 {
			score -= deductionHighDisk
		}
		if !snapshot.Database.Health.Healthy() {
			score -= deductionDatabaseDown
		}
		if !snapshot.Cache.Health.Healthy() {
			score -= deductionCacheDown
		}
	}

	for _, alert := range activeAlerts {
		switch alert.Severity {
		case models.AlertSeverityCritical:
			score -= deductionCriticalAlert
		case models.AlertSeverityHigh:
			score -= deductionHighAlert
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return models.HealthScore{
		Score:  score,
		Status: statusForScore(score),
	}
}

// statusForScore 把健康得分映射为三态状态
func statusForScore(score int) models.HealthStatus {
	switch {
	case score >= 80:
		return models.HealthStatusHealthy
	case score >= 50:
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusUnhealthy
	}
}
