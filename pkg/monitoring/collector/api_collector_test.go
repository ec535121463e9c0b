package collector

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAPICollectorAggregation 测试按路径聚合请求统计
func TestAPICollectorAggregation(t *testing.T) {
	c := NewAPICollector(nil)

	c.RecordRequest("/api/users", 100, false, true, true)
	c.RecordRequest("/api/users", 200, true, true, false)
	c.RecordRequest("/api/users", 300, false, false, false)
	c.RecordRequest("/api/orders", 50, false, false, false)

	stats := c.Stats()
	require.Len(t, stats, 2)

	// 结果按路径排序
	assert.Equal(t, "/api/orders", stats[0].Path)
	assert.Equal(t, "/api/users", stats[1].Path)

	users := stats[1]
	assert.Equal(t, int64(3), users.RequestCount)
	assert.InDelta(t, 200, users.AvgDurationMs, 0.001)
	// 3次请求1次出错
	assert.InDelta(t, 33.333, users.ErrorRate, 0.01)
	// 2次缓存查询1次命中
	assert.InDelta(t, 50, users.CacheHitRate, 0.001)
}

// TestAPICollectorNoCacheLookups 测试没有缓存查询时命中率为0
func TestAPICollectorNoCacheLookups(t *testing.T) {
	c := NewAPICollector(nil)
	c.RecordRequest("/health", 5, false, false, false)

	stats := c.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, float64(0), stats[0].CacheHitRate)
	assert.Equal(t, float64(0), stats[0].ErrorRate)
}

// TestAPICollectorReset 测试清空统计
func TestAPICollectorReset(t *testing.T) {
	c := NewAPICollector(nil)
	c.RecordRequest("/api/users", 10, false, false, false)
	require.Len(t, c.Stats(), 1)

	c.Reset()
	assert.Empty(t, c.Stats())
}

// TestAPICollectorConcurrentRecord 测试并发上报的安全性
func TestAPICollectorConcurrentRecord(t *testing.T) {
	c := NewAPICollector(nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordRequest("/api/users", 10, false, true, true)
			}
		}()
	}
	wg.Wait()

	stats := c.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1000), stats[0].RequestCount)
	assert.Equal(t, float64(100), stats[0].CacheHitRate)
}
