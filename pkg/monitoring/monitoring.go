// Package monitoring 提供基础设施监控与告警的统一入口，
// 组合采集器、趋势存储、健康评分、告警规则引擎和告警存储，
// 并通过调度器驱动周期性的采集与评估。
package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"infrawatch/pkg/common"
	"infrawatch/pkg/monitoring/alerting"
	"infrawatch/pkg/monitoring/collector"
	"infrawatch/pkg/monitoring/models"
	"infrawatch/pkg/monitoring/storage"
	"infrawatch/pkg/scheduler"
)

const (
	collectTaskName  = "monitoring-collect"
	evaluateTaskName = "monitoring-evaluate"
)

// Config 监控系统配置
type Config struct {
	// Server 服务器指标来源，为nil时跳过服务器采集
	Server collector.ServerSource
	// DB 数据库指标来源，为nil时数据库视为down
	DB collector.DatabaseSource
	// Cache 缓存指标来源，为nil时缓存视为down
	Cache collector.CacheSource
	// APICollector 可选的接口性能统计来源
	APICollector *collector.APICollector
	// Rules 内置告警规则的阈值配置
	Rules alerting.RuleConfig
	// Dispatcher 可选的告警通知分发器
	Dispatcher alerting.Dispatcher
	// CollectInterval 采集周期，默认60秒
	CollectInterval time.Duration
	// EvaluateInterval 告警评估周期，默认30秒
	EvaluateInterval time.Duration
	// TrendCapacity 趋势历史容量，默认10080个点
	TrendCapacity int
	// Logger 日志记录器
	Logger *zap.Logger
}

// Monitor 监控系统门面
type Monitor struct {
	sampler      *collector.Sampler
	trendStore   *storage.TrendStore
	engine       *alerting.Engine
	alertStore   *alerting.Store
	apiCollector *collector.APICollector
	scheduler    *scheduler.Scheduler
	logger       *zap.Logger

	collectInterval  time.Duration
	evaluateInterval time.Duration

	mu           sync.RWMutex
	lastSnapshot *models.MetricSnapshot
}

// New 创建监控系统
func New(config Config) *Monitor {
	logger := config.Logger
	if logger == nil {
		logger = common.GetLogger().GetZapLogger("monitoring")
	}

	collectInterval := config.CollectInterval
	if collectInterval <= 0 {
		collectInterval = 60 * time.Second
	}
	evaluateInterval := config.EvaluateInterval
	if evaluateInterval <= 0 {
		evaluateInterval = 30 * time.Second
	}

	return &Monitor{
		sampler: collector.NewSampler(collector.SamplerConfig{
			Server: config.Server,
			DB:     config.DB,
			Cache:  config.Cache,
			Logger: logger,
		}),
		trendStore:   storage.NewTrendStore(config.TrendCapacity),
		engine:       alerting.NewEngine(config.Rules, logger),
		alertStore:   alerting.NewStore(alerting.StoreConfig{Dispatcher: config.Dispatcher, Logger: logger}),
		apiCollector: config.APICollector,
		scheduler:    scheduler.New(logger),
		logger:       logger,

		collectInterval:  collectInterval,
		evaluateInterval: evaluateInterval,
	}
}

// Start 启动监控系统，注册采集与评估两个周期任务
func (m *Monitor) Start() error {
	collectTask := scheduler.NewIntervalTask(collectTaskName, m.collectInterval, true, 0, m.runCollect)
	if err := m.scheduler.AddTask(collectTask); err != nil {
		return fmt.Errorf("注册采集任务失败: %w", err)
	}

	evaluateTask := scheduler.NewIntervalTask(evaluateTaskName, m.evaluateInterval, false, 0, m.runEvaluate)
	if err := m.scheduler.AddTask(evaluateTask); err != nil {
		return fmt.Errorf("注册评估任务失败: %w", err)
	}

	if err := m.scheduler.Start(); err != nil {
		return fmt.Errorf("启动调度器失败: %w", err)
	}

	m.logger.Info("监控系统已启动",
		zap.Duration("collect_interval", m.collectInterval),
		zap.Duration("evaluate_interval", m.evaluateInterval),
		zap.Int("trend_capacity", m.trendStore.Capacity()))
	return nil
}

// Stop 停止监控系统，等待正在运行的任务结束
func (m *Monitor) Stop() {
	m.scheduler.Stop()
	m.logger.Info("监控系统已停止")
}

// runCollect 执行一次指标采集并写入趋势历史
func (m *Monitor) runCollect(ctx context.Context) error {
	snapshot := m.sampler.Collect(ctx)

	m.mu.Lock()
	m.lastSnapshot = snapshot
	m.mu.Unlock()

	m.trendStore.Append(models.TrendPointFromSnapshot(snapshot))
	return nil
}

// runEvaluate 对最近一次快照执行一轮告警规则评估
func (m *Monitor) runEvaluate(ctx context.Context) error {
	m.mu.RLock()
	snapshot := m.lastSnapshot
	m.mu.RUnlock()

	if snapshot == nil {
		m.logger.Debug("尚无指标快照，跳过本轮告警评估")
		return nil
	}

	var endpointStats []models.EndpointStats
	if m.apiCollector != nil {
		endpointStats = m.apiCollector.Stats()
	}

	health := m.HealthScore()
	requests := m.engine.Evaluate(snapshot, endpointStats, health)
	for _, req := range requests {
		if _, err := m.alertStore.CreateAlert(req); err != nil {
			m.logger.Error("创建告警失败",
				zap.String("name", req.Name),
				zap.Error(err))
		}
	}
	return nil
}

// TriggerEvaluation 立即触发一轮告警评估，不影响周期计划
func (m *Monitor) TriggerEvaluation() error {
	return m.scheduler.Trigger(evaluateTaskName)
}

// TriggerCollect 立即触发一次指标采集，不影响周期计划
func (m *Monitor) TriggerCollect() error {
	return m.scheduler.Trigger(collectTaskName)
}

// LatestSnapshot 返回最近一次采集的指标快照，尚未采集时返回nil
func (m *Monitor) LatestSnapshot() *models.MetricSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSnapshot
}

// HealthScore 基于最近一次快照和当前活跃告警计算整体健康评分
func (m *Monitor) HealthScore() models.HealthScore {
	m.mu.RLock()
	snapshot := m.lastSnapshot
	m.mu.RUnlock()

	return alerting.HealthScore(snapshot, m.alertStore.GetActiveAlerts())
}

// Summary 返回基础设施汇总视图：最近快照、各服务健康状态、活跃告警和健康评分
func (m *Monitor) Summary() *models.InfrastructureSummary {
	m.mu.RLock()
	snapshot := m.lastSnapshot
	m.mu.RUnlock()

	services := make(map[string]models.ServiceHealth)
	if snapshot != nil {
		services["database"] = snapshot.Database.Health
		services["cache"] = snapshot.Cache.Health
	}

	activeAlerts := m.alertStore.GetActiveAlerts()
	return &models.InfrastructureSummary{
		Snapshot:     snapshot,
		Services:     services,
		ActiveAlerts: activeAlerts,
		Health:       alerting.HealthScore(snapshot, activeAlerts),
	}
}

// Trends 返回最近指定小时数内的趋势点，按时间升序
func (m *Monitor) Trends(hours int) []models.TrendPoint {
	if hours <= 0 {
		hours = 24
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	return m.trendStore.Query(since)
}

// CreateAlert 手动创建告警
func (m *Monitor) CreateAlert(req *models.AlertRequest) (*models.Alert, error) {
	return m.alertStore.CreateAlert(req)
}

// AcknowledgeAlert 确认告警
func (m *Monitor) AcknowledgeAlert(id, acknowledgedBy, notes string) (*models.Alert, error) {
	return m.alertStore.AcknowledgeAlert(id, acknowledgedBy, notes)
}

// ResolveAlert 解决告警
func (m *Monitor) ResolveAlert(id, resolvedBy, notes string) (*models.Alert, error) {
	return m.alertStore.ResolveAlert(id, resolvedBy, notes)
}

// SuppressAlert 抑制告警
func (m *Monitor) SuppressAlert(id string, durationMinutes int, reason string) (*models.Alert, error) {
	return m.alertStore.SuppressAlert(id, durationMinutes, reason)
}

// GetActiveAlerts 返回所有活跃告警
func (m *Monitor) GetActiveAlerts() []*models.Alert {
	return m.alertStore.GetActiveAlerts()
}

// GetAlerts 按过滤条件分页查询告警
func (m *Monitor) GetAlerts(filter models.AlertFilter) *models.AlertList {
	return m.alertStore.GetAlerts(filter)
}

// GetAlertStatistics 统计指定时间窗口内的告警
func (m *Monitor) GetAlertStatistics(windowHours int) *models.AlertStatistics {
	return m.alertStore.GetStatistics(windowHours)
}
