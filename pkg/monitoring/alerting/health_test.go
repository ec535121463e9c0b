package alerting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"infrawatch/pkg/monitoring/models"
)

// TestHealthScorePerfectSystem 测试无异常时满分
func TestHealthScorePerfectSystem(t *testing.T) {
	result := HealthScore(healthySnapshot(), nil)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, models.HealthStatusHealthy, result.Status)
}

// TestHealthScoreNilSnapshot 测试没有快照时只按告警扣分
func TestHealthScoreNilSnapshot(t *testing.T) {
	result := HealthScore(nil, nil)
	assert.Equal(t, 100, result.Score)

	alerts := []*models.Alert{{Severity: models.AlertSeverityCritical}}
	result = HealthScore(nil, alerts)
	assert.Equal(t, 75, result.Score)
}

// TestHealthScoreDeductions 测试各扣分项
func TestHealthScoreDeductions(t *testing.T) {
	// CPU超过90%扣20分
	snapshot := healthySnapshot()
	snapshot.Server.CPUUsagePercent = 92
	result := HealthScore(snapshot, nil)
	assert.Equal(t, 80, result.Score)
	assert.Equal(t, models.HealthStatusHealthy, result.Status)

	// 再叠加数据库down扣30分
	snapshot.Database.Health.Status = models.ServiceStatusDown
	result = HealthScore(snapshot, nil)
	assert.Equal(t, 50, result.Score)
	assert.Equal(t, models.HealthStatusDegraded, result.Status)

	// 再叠加缓存down扣15分
	snapshot.Cache.Health.Status = models.ServiceStatusDown
	result = HealthScore(snapshot, nil)
	assert.Equal(t, 35, result.Score)
	assert.Equal(t, models.HealthStatusUnhealthy, result.Status)
}

// TestHealthScoreAlertDeductions 测试活跃告警的扣分
func TestHealthScoreAlertDeductions(t *testing.T) {
	snapshot := healthySnapshot()
	snapshot.Server.CPUUsagePercent = 96

	alerts := []*models.Alert{
		{Severity: models.AlertSeverityCritical},
		{Severity: models.AlertSeverityHigh},
		{Severity: models.AlertSeverityMedium}, // 不扣分
		{Severity: models.AlertSeverityLow},    // 不扣分
	}

	// 100 - 20(CPU) - 25(CRITICAL) - 10(HIGH) = 45
	result := HealthScore(snapshot, alerts)
	assert.Equal(t, 45, result.Score)
	assert.Equal(t, models.HealthStatusUnhealthy, result.Status)
}

// TestHealthScoreClampedAtZero 测试得分下限为0
func TestHealthScoreClampedAtZero(t *testing.T) {
	snapshot := healthySnapshot()
	snapshot.Server.CPUUsagePercent = 99
	snapshot.Server.MemoryUsagePercent = 99
	snapshot.Server.DiskUsagePercent = 99
	snapshot.Database.Health.Status = models.ServiceStatusDown
	snapshot.Cache.Health.Status = models.ServiceStatusDown

	alerts := []*models.Alert{
		{Severity: models.AlertSeverityCritical},
		{Severity: models.AlertSeverityCritical},
	}

	result := HealthScore(snapshot, alerts)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, models.HealthStatusUnhealthy, result.Status)
}

// TestHealthScoreMonotonicity 测试扣分项只增不减
func TestHealthScoreMonotonicity(t *testing.T) {
	snapshot := healthySnapshot()
	base := HealthScore(snapshot, nil).Score

	snapshot.Server.CPUUsagePercent = 92
	withCPU := HealthScore(snapshot, nil).Score
	assert.Less(t, withCPU, base)

	snapshot.Database.Health.Status = models.ServiceStatusDown
	withDB := HealthScore(snapshot, nil).Score
	assert.Less(t, withDB, withCPU)
}

// TestStatusForScoreBoundaries 测试状态映射的边界
func TestStatusForScoreBoundaries(t *testing.T) {
	assert.Equal(t, models.HealthStatusHealthy, statusForScore(100))
	assert.Equal(t, models.HealthStatusHealthy, statusForScore(80))
	assert.Equal(t, models.HealthStatusDegraded, statusForScore(79))
	assert.Equal(t, models.HealthStatusDegraded, statusForScore(50))
	assert.Equal(t, models.HealthStatusUnhealthy, statusForScore(49))
	assert.Equal(t, models.HealthStatusUnhealthy, statusForScore(0))
}
