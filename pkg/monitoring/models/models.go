// Package models 定义监控系统使用的数据模型
package models

import (
	"time"
)

// ServiceStatus 表示单个依赖服务的健康状态
type ServiceStatus string

const (
	// ServiceStatusUp 服务正常
	ServiceStatusUp ServiceStatus = "up"
	// ServiceStatusDown 服务不可用
	ServiceStatusDown ServiceStatus = "down"
)

// ServiceHealth 表示依赖服务的健康检查结果
type ServiceHealth struct {
	Status    ServiceStatus `json:"status"`     // 健康状态
	LatencyMs float64       `json:"latency_ms"` // 健康检查耗时（毫秒）
}

// Healthy 判断服务是否健康
func (h ServiceHealth) Healthy() bool {
	return h.Status == ServiceStatusUp
}

// ServerMetrics 表示一次服务器指标采样
type ServerMetrics struct {
	CPUUsagePercent    float64 `json:"cpu_usage_percent"`    // CPU使用率（百分比）
	Load1              float64 `json:"load1"`                // 1分钟负载
	Load5              float64 `json:"load5"`                // 5分钟负载
	Load15             float64 `json:"load15"`               // 15分钟负载
	MemoryUsedBytes    int64   `json:"memory_used_bytes"`    // 已用内存（字节）
	MemoryTotalBytes   int64   `json:"memory_total_bytes"`   // 总内存（字节）
	HeapInUseBytes     int64   `json:"heap_inuse_bytes"`     // 进程堆内存（字节）
	MemoryUsagePercent float64 `json:"memory_usage_percent"` // 内存使用率（百分比）
	DiskUsedBytes      int64   `json:"disk_used_bytes"`      // 已用磁盘空间（字节）
	DiskTotalBytes     int64   `json:"disk_total_bytes"`     // 总磁盘空间（字节）
	DiskUsagePercent   float64 `json:"disk_usage_percent"`   // 磁盘使用率（百分比）
	NetworkBytesSent   int64   `json:"network_bytes_sent"`   // 网络发送总字节数
	NetworkBytesRecv   int64   `json:"network_bytes_recv"`   // 网络接收总字节数
}

// DatabaseMetrics 表示一次数据库指标采样
type DatabaseMetrics struct {
	ActiveConnections int           `json:"active_connections"` // 活跃连接数
	IdleConnections   int           `json:"idle_connections"`   // 空闲连接数
	TotalConnections  int           `json:"total_connections"`  // 当前连接总数
	MaxConnections    int           `json:"max_connections"`    // 最大连接数
	AvgQueryTimeMs    float64       `json:"avg_query_time_ms"`  // 平均查询耗时（毫秒）
	SlowQueryCount    int64         `json:"slow_query_count"`   // 慢查询次数
	StorageBytes      int64         `json:"storage_bytes"`      // 数据库存储大小（字节）
	Health            ServiceHealth `json:"health"`             // 健康检查结果
}

// CacheMetrics 表示一次缓存指标采样
type CacheMetrics struct {
	HitRate    float64       `json:"hit_rate"`    // 命中率（百分比）
	Hits       int64         `json:"hits"`        // 命中次数
	Misses     int64         `json:"misses"`      // 未命中次数
	MemoryUsed int64         `json:"memory_used"` // 已用内存（字节）
	MemoryMax  int64         `json:"memory_max"`  // 内存上限（字节），0表示不限制
	OpsPerSec  float64       `json:"ops_per_sec"` // 每秒操作数
	Health     ServiceHealth `json:"health"`      // 健康检查结果
}

// MetricSnapshot 表示一次完整的基础设施指标快照
type MetricSnapshot struct {
	Timestamp time.Time       `json:"timestamp"` // 采样时间
	Server    ServerMetrics   `json:"server"`    // 服务器指标
	Database  DatabaseMetrics `json:"database"`  // 数据库指标
	Cache     CacheMetrics    `json:"cache"`     // 缓存指标
}

// TrendPoint 表示趋势历史中的一个数据点，追加后不可变
type TrendPoint struct {
	Timestamp           time.Time `json:"timestamp"`             // 采样时间
	CPUPercent          float64   `json:"cpu_percent"`           // CPU使用率
	MemoryPercent       float64   `json:"memory_percent"`        // 内存使用率
	DiskPercent         float64   `json:"disk_percent"`          // 磁盘使用率
	NetworkBytes        int64     `json:"network_bytes"`         // 网络收发总字节数
	DBActiveConnections int       `json:"db_active_connections"` // 数据库活跃连接数
	CacheHitRate        float64   `json:"cache_hit_rate"`        // 缓存命中率
}

// TrendPointFromSnapshot 从指标快照提取趋势数据点
func TrendPointFromSnapshot(s *MetricSnapshot) TrendPoint {
	return TrendPoint{
		Timestamp:           s.Timestamp,
		CPUPercent:          s.Server.CPUUsagePercent,
		MemoryPercent:       s.Server.MemoryUsagePercent,
		DiskPercent:         s.Server.DiskUsagePercent,
		NetworkBytes:        s.Server.NetworkBytesSent + s.Server.NetworkBytesRecv,
		DBActiveConnections: s.Database.ActiveConnections,
		CacheHitRate:        s.Cache.HitRate,
	}
}

// HealthStatus 表示整体健康状态
type HealthStatus string

const (
	// HealthStatusHealthy 健康（得分>=80）
	HealthStatusHealthy HealthStatus = "healthy"
	// HealthStatusDegraded 降级（得分>=50）
	HealthStatusDegraded HealthStatus = "degraded"
	// HealthStatusUnhealthy 不健康（得分<50）
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthScore 表示派生的整体健康评分，按需计算，不做持久化
type HealthScore struct {
	Score  int          `json:"score"`  // 0-100的健康得分
	Status HealthStatus `json:"status"` // 整体健康状态
}

// EndpointStats 表示某个接口在窗口内的聚合性能统计
type EndpointStats struct {
	Path          string  `json:"path"`            // 接口路径
	RequestCount  int64   `json:"request_count"`   // 请求总数
	AvgDurationMs float64 `json:"avg_duration_ms"` // 平均响应耗时（毫秒）
	ErrorRate     float64 `json:"error_rate"`      // 错误率（百分比）
	CacheHitRate  float64 `json:"cache_hit_rate"`  // 缓存命中率（百分比）
}

// InfrastructureSummary 表示基础设施概览
type InfrastructureSummary struct {
	Snapshot     *MetricSnapshot          `json:"snapshot"`      // 最近一次指标快照
	Services     map[string]ServiceHealth `json:"services"`      // 各依赖服务健康状态
	ActiveAlerts []*Alert                 `json:"active_alerts"` // 当前活跃告警
	Health       HealthScore              `json:"health"`        // 整体健康评分
}
