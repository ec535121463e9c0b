// Package collector 实现服务器、数据库和缓存指标的采集
package collector

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	netutil "github.com/shirou/gopsutil/v3/net"
	"go.uber.org/zap"

	"infrawatch/pkg/common"
	"infrawatch/pkg/monitoring/models"
)

// ServerCollector 服务器指标收集器，读取操作系统层面的CPU、内存、磁盘和网络计数
type ServerCollector struct {
	logger *zap.Logger
}

// NewServerCollector 创建新的服务器收集器
func NewServerCollector(logger *zap.Logger) *ServerCollector {
	if logger == nil {
		logger = common.GetLogger().GetZapLogger("server-collector")
	}
	return &ServerCollector{logger: logger}
}

// Collect 采集一次服务器指标。
// 单项采集失败只记录日志并保留零值，永远不会中断整个采集。
func (c *ServerCollector) Collect(ctx context.Context) models.ServerMetrics {
	var m models.ServerMetrics

	c.collectCPU(ctx, &m)
	c.collectMemory(ctx, &m)
	c.collectDisk(ctx, &m)
	c.collectNetwork(ctx, &m)

	return m
}

// collectCPU 采集CPU使用率和系统负载
func (c *ServerCollector) collectCPU(ctx context.Context, m *models.ServerMetrics) {
	// 0间隔表示相对上次调用的使用率，避免每次采集都阻塞1秒
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		c.logger.Warn("采集CPU使用率失败", zap.Error(err))
	} else if len(percents) > 0 {
		m.CPUUsagePercent = percents[0]
	}

	loadAvg, err := load.AvgWithContext(ctx)
	if err != nil {
		c.logger.Warn("采集系统负载失败", zap.Error(err))
		return
	}
	m.Load1 = loadAvg.Load1
	m.Load5 = loadAvg.Load5
	m.Load15 = loadAvg.Load15
}

// collectMemory 采集内存指标
func (c *ServerCollector) collectMemory(ctx context.Context, m *models.ServerMetrics) {
	memInfo, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		c.logger.Warn("采集内存指标失败", zap.Error(err))
	} else {
		m.MemoryUsedBytes = int64(memInfo.Used)
		m.MemoryTotalBytes = int64(memInfo.Total)
		m.MemoryUsagePercent = memInfo.UsedPercent
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.HeapInUseBytes = int64(ms.HeapInuse)
}

// collectDisk 采集磁盘使用情况，使用率取各分区中的最大值
func (c *ServerCollector) collectDisk(ctx context.Context, m *models.ServerMetrics) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		c.logger.Warn("获取磁盘分区信息失败", zap.Error(err))
		return
	}

	var totalSize, totalUsed uint64
	var maxUsedPercent float64
	for _, part := range parts {
		usage, err := disk.UsageWithContext(ctx, part.Mountpoint)
		if err != nil {
			c.logger.Warn("获取分区使用情况失败",
				zap.String("mountpoint", part.Mountpoint),
				zap.Error(err))
			continue
		}
		totalSize += usage.Total
		totalUsed += usage.Used
		if usage.UsedPercent > maxUsedPercent {
			maxUsedPercent = usage.UsedPercent
		}
	}

	m.DiskTotalBytes = int64(totalSize)
	m.DiskUsedBytes = int64(totalUsed)
	m.DiskUsagePercent = maxUsedPercent
}

// collectNetwork 采集所有网络接口的收发总量
func (c *ServerCollector) collectNetwork(ctx context.Context, m *models.ServerMetrics) {
	netIO, err := netutil.IOCountersWithContext(ctx, false)
	if err != nil || len(netIO) == 0 {
		if err != nil {
			c.logger.Warn("采集网络指标失败", zap.Error(err))
		}
		return
	}

	var sent, recv uint64
	for _, stat := range netIO {
		sent += stat.BytesSent
		recv += stat.BytesRecv
	}
	m.NetworkBytesSent = int64(sent)
	m.NetworkBytesRecv = int64(recv)
}
