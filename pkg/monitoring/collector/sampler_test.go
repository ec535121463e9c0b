package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infrawatch/pkg/monitoring/models"
)

// fakeServerSource 返回固定的服务器指标
type fakeServerSource struct {
	metrics models.ServerMetrics
}

func (f *fakeServerSource) Collect(ctx context.Context) models.ServerMetrics {
	return f.metrics
}

// fakeDatabaseSource 返回固定的数据库指标
type fakeDatabaseSource struct {
	metrics models.DatabaseMetrics
}

func (f *fakeDatabaseSource) Collect(ctx context.Context) models.DatabaseMetrics {
	return f.metrics
}

// fakeCacheSource 返回固定的缓存指标
type fakeCacheSource struct {
	metrics models.CacheMetrics
}

func (f *fakeCacheSource) Collect(ctx context.Context) models.CacheMetrics {
	return f.metrics
}

// TestSamplerCollectAllSources 测试三类来源齐全时的完整快照
func TestSamplerCollectAllSources(t *testing.T) {
	sampler := NewSampler(SamplerConfig{
		Server: &fakeServerSource{metrics: models.ServerMetrics{CPUUsagePercent: 42}},
		DB: &fakeDatabaseSource{metrics: models.DatabaseMetrics{
			ActiveConnections: 7,
			Health:            models.ServiceHealth{Status: models.ServiceStatusUp, LatencyMs: 2},
		}},
		Cache: &fakeCacheSource{metrics: models.CacheMetrics{
			HitRate: 88,
			Health:  models.ServiceHealth{Status: models.ServiceStatusUp, LatencyMs: 1},
		}},
	})

	snapshot := sampler.Collect(context.Background())
	require.NotNil(t, snapshot)
	assert.False(t, snapshot.Timestamp.IsZero())
	assert.Equal(t, float64(42), snapshot.Server.CPUUsagePercent)
	assert.Equal(t, 7, snapshot.Database.ActiveConnections)
	assert.True(t, snapshot.Database.Health.Healthy())
	assert.Equal(t, float64(88), snapshot.Cache.HitRate)
	assert.True(t, snapshot.Cache.Health.Healthy())
}

// TestSamplerMissingSources 测试缺失的来源保留down状态，不影响其他分组
func TestSamplerMissingSources(t *testing.T) {
	sampler := NewSampler(SamplerConfig{
		Server: &fakeServerSource{metrics: models.ServerMetrics{CPUUsagePercent: 10}},
	})

	snapshot := sampler.Collect(context.Background())
	require.NotNil(t, snapshot)

	// 服务器分组正常
	assert.Equal(t, float64(10), snapshot.Server.CPUUsagePercent)
	// 数据库和缓存默认为down
	assert.Equal(t, models.ServiceStatusDown, snapshot.Database.Health.Status)
	assert.Equal(t, models.ServiceStatusDown, snapshot.Cache.Health.Status)
}

// TestSamplerDatabaseDownKeepsOtherGroups 测试数据库down时其他分组仍然填充
func TestSamplerDatabaseDownKeepsOtherGroups(t *testing.T) {
	sampler := NewSampler(SamplerConfig{
		Server: &fakeServerSource{metrics: models.ServerMetrics{MemoryUsagePercent: 55}},
		DB: &fakeDatabaseSource{metrics: models.DatabaseMetrics{
			Health: models.ServiceHealth{Status: models.ServiceStatusDown},
		}},
		Cache: &fakeCacheSource{metrics: models.CacheMetrics{
			HitRate: 95,
			Health:  models.ServiceHealth{Status: models.ServiceStatusUp},
		}},
	})

	snapshot := sampler.Collect(context.Background())
	assert.False(t, snapshot.Database.Health.Healthy())
	assert.Equal(t, float64(55), snapshot.Server.MemoryUsagePercent)
	assert.True(t, snapshot.Cache.Health.Healthy())
}

// TestSamplerTimeoutConfig 测试采集超时的默认值
func TestSamplerTimeoutConfig(t *testing.T) {
	sampler := NewSampler(SamplerConfig{})
	assert.Equal(t, 5*time.Second, sampler.timeout)

	sampler = NewSampler(SamplerConfig{Timeout: time.Second})
	assert.Equal(t, time.Second, sampler.timeout)
}

// TestTrendPointFromSnapshot 测试快照到趋势点的转换
func TestTrendPointFromSnapshot(t *testing.T) {
	now := time.Now()
	snapshot := &models.MetricSnapshot{
		Timestamp: now,
		Server: models.ServerMetrics{
			CPUUsagePercent:    33,
			MemoryUsagePercent: 44,
			DiskUsagePercent:   55,
			NetworkBytesSent:   100,
			NetworkBytesRecv:   200,
		},
		Database: models.DatabaseMetrics{ActiveConnections: 9},
		Cache:    models.CacheMetrics{HitRate: 77},
	}

	point := models.TrendPointFromSnapshot(snapshot)
	assert.Equal(t, now, point.Timestamp)
	assert.Equal(t, float64(33), point.CPUPercent)
	assert.Equal(t, float64(44), point.MemoryPercent)
	assert.Equal(t, float64(55), point.DiskPercent)
	assert.Equal(t, int64(300), point.NetworkBytes)
	assert.Equal(t, 9, point.DBActiveConnections)
	assert.Equal(t, float64(77), point.CacheHitRate)
}
