package alerting

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"infrawatch/pkg/common"
	"infrawatch/pkg/monitoring/models"
)

// Dispatcher 告警通知分发接口，由notifier包实现。
// 分发是尽力而为的，失败不影响告警本身的创建。
type Dispatcher interface {
	Dispatch(alert *models.Alert) error
}

// StoreConfig 告警存储配置
type StoreConfig struct {
	// Dispatcher 可选的通知分发器，为nil时不发送通知
	Dispatcher Dispatcher
	// Logger 日志记录器，为nil时使用默认日志
	Logger *zap.Logger
}

// Store 内存告警存储，负责告警的创建去重、生命周期状态管理和查询统计。
// 所有方法并发安全。
type Store struct {
	mu         sync.RWMutex
	alerts     map[string]*models.Alert
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewStore 创建告警存储
func NewStore(config StoreConfig) *Store {
	logger := config.Logger
	if logger == nil {
		logger = common.GetLogger().GetZapLogger("alert-store")
	}
	return &Store{
		alerts:     make(map[string]*models.Alert),
		dispatcher: config.Dispatcher,
		logger:     logger,
	}
}

// dedupKey 去重键：同名、同来源、同指标的告警视为同一个
func dedupKey(name, source, metric string) string {
	return name + "|" + source + "|" + metric
}

// cloneAlert 返回告警的深拷贝。
// 所有对外返回的告警都是拷贝，调用方持有的结果不会随后续状态转换变化。
func cloneAlert(alert *models.Alert) *models.Alert {
	copied := *alert
	if alert.Threshold != nil {
		threshold := *alert.Threshold
		copied.Threshold = &threshold
	}
	copied.Tags = make([]string, len(alert.Tags))
	copy(copied.Tags, alert.Tags)
	copied.Metadata = make(map[string]string, len(alert.Metadata))
	for key, value := range alert.Metadata {
		copied.Metadata[key] = value
	}
	if alert.AcknowledgedAt != nil {
		at := *alert.AcknowledgedAt
		copied.AcknowledgedAt = &at
	}
	if alert.ResolvedAt != nil {
		at := *alert.ResolvedAt
		copied.ResolvedAt = &at
	}
	if alert.SuppressedUntil != nil {
		until := *alert.SuppressedUntil
		copied.SuppressedUntil = &until
	}
	return &copied
}

// CreateAlert 创建告警。
// 若已存在相同(名称,来源,指标)的活跃告警，返回已存在的告警而不新建；
// 若相同告警处于抑制期内，请求被丢弃并返回被抑制的告警。
func (s *Store) CreateAlert(req *models.AlertRequest) (*models.Alert, error) {
	if req == nil {
		return nil, fmt.Errorf("告警请求不能为空")
	}
	if req.Name == "" {
		return nil, fmt.Errorf("告警名称不能为空")
	}

	s.mu.Lock()

	key := dedupKey(req.Name, defaultString(req.Source, "system"), req.Metric)
	now := time.Now()

	for _, existing := range s.alerts {
		if dedupKey(existing.Name, existing.Source, existing.Metric) != key {
			continue
		}
		switch existing.Status {
		case models.AlertStatusActive:
			snapshot := cloneAlert(existing)
			s.mu.Unlock()
			return snapshot, nil
		case models.AlertStatusSuppressed:
			if existing.SuppressedUntil != nil && now.Before(*existing.SuppressedUntil) {
				snapshot := cloneAlert(existing)
				s.mu.Unlock()
				return snapshot, nil
			}
		}
	}

	alert := &models.Alert{
		ID:            uuid.New().String(),
		Name:          req.Name,
		Description:   req.Description,
		Severity:      req.Severity,
		Category:      req.Category,
		Source:        defaultString(req.Source, "system"),
		Metric:        req.Metric,
		Threshold:     req.Threshold,
		CurrentValue:  req.CurrentValue,
		Tags:          req.Tags,
		Metadata:      req.Metadata,
		CorrelationID: req.CorrelationID,
		Timestamp:     now,
		Status:        models.AlertStatusActive,
	}
	if alert.Severity == "" {
		alert.Severity = models.AlertSeverityMedium
	}
	if alert.Category == "" {
		alert.Category = models.AlertCategorySystem
	}
	if alert.Tags == nil {
		alert.Tags = []string{}
	}
	if alert.Metadata == nil {
		alert.Metadata = map[string]string{}
	}

	s.alerts[alert.ID] = alert
	snapshot := cloneAlert(alert)
	s.mu.Unlock()

	s.logger.Warn("新告警已触发",
		zap.String("id", snapshot.ID),
		zap.String("name", snapshot.Name),
		zap.String("severity", string(snapshot.Severity)),
		zap.String("category", string(snapshot.Category)),
		zap.String("source", snapshot.Source),
		zap.Float64("value", snapshot.CurrentValue))

	// 通知分发在锁外进行，失败只记录日志
	if s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(snapshot); err != nil {
			s.logger.Error("告警通知分发失败",
				zap.String("id", snapshot.ID),
				zap.String("name", snapshot.Name),
				zap.Error(err))
		}
	}

	return snapshot, nil
}

// AcknowledgeAlert 确认告警，仅允许确认活跃状态的告警
func (s *Store) AcknowledgeAlert(id, acknowledgedBy, notes string) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[id]
	if !ok {
		return nil, nil
	}
	if alert.Status != models.AlertStatusActive {
		return nil, nil
	}

	now := time.Now()
	alert.Status = models.AlertStatusAcknowledged
	alert.AcknowledgedBy = acknowledgedBy
	alert.AcknowledgedAt = &now
	if notes != "" {
		alert.Notes = notes
	}

	s.logger.Info("告警已确认",
		zap.String("id", id),
		zap.String("name", alert.Name),
		zap.String("by", acknowledgedBy))
	return cloneAlert(alert), nil
}

// ResolveAlert 解决告警，允许从活跃或已确认状态解决
func (s *Store) ResolveAlert(id, resolvedBy, notes string) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[id]
	if !ok {
		return nil, nil
	}
	if alert.Status != models.AlertStatusActive && alert.Status != models.AlertStatusAcknowledged {
		return nil, nil
	}

	now := time.Now()
	alert.Status = models.AlertStatusResolved
	alert.AcknowledgedBy = resolvedBy
	alert.ResolvedAt = &now
	if notes != "" {
		alert.Notes = notes
	}

	s.logger.Info("告警已解决",
		zap.String("id", id),
		zap.String("name", alert.Name),
		zap.String("by", resolvedBy),
		zap.Duration("duration", now.Sub(alert.Timestamp)))
	return cloneAlert(alert), nil
}

// SuppressAlert 抑制告警，在抑制期内相同(名称,来源,指标)的新告警请求会被丢弃
func (s *Store) SuppressAlert(id string, durationMinutes int, reason string) (*models.Alert, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("抑制时长必须为正数: %d", durationMinutes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[id]
	if !ok {
		return nil, nil
	}
	if alert.Status != models.AlertStatusActive && alert.Status != models.AlertStatusAcknowledged {
		return nil, nil
	}

	until := time.Now().Add(time.Duration(durationMinutes) * time.Minute)
	alert.Status = models.AlertStatusSuppressed
	alert.SuppressedUntil = &until
	if reason != "" {
		alert.Notes = reason
	}

	s.logger.Info("告警已抑制",
		zap.String("id", id),
		zap.String("name", alert.Name),
		zap.Int("minutes", durationMinutes))
	return cloneAlert(alert), nil
}

// GetAlert 按ID查询告警，不存在时返回nil
func (s *Store) GetAlert(id string) *models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alert, ok := s.alerts[id]
	if !ok {
		return nil
	}
	return cloneAlert(alert)
}

// GetActiveAlerts 返回所有活跃状态的告警，按创建时间倒序，结果始终非nil
func (s *Store) GetActiveAlerts() []*models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]*models.Alert, 0)
	for _, alert := range s.alerts {
		if alert.Status == models.AlertStatusActive {
			active = append(active, cloneAlert(alert))
		}
	}
	sortNewestFirst(active)
	return active
}

// GetAlerts 按过滤条件分页查询告警，结果按创建时间倒序
func (s *Store) GetAlerts(filter models.AlertFilter) *models.AlertList {
	s.mu.RLock()

	matched := make([]*models.Alert, 0)
	for _, alert := range s.alerts {
		if filter.Severity != "" && alert.Severity != filter.Severity {
			continue
		}
		if filter.Category != "" && alert.Category != filter.Category {
			continue
		}
		if filter.Source != "" && alert.Source != filter.Source {
			continue
		}
		if filter.Status != "" && alert.Status != filter.Status {
			continue
		}
		matched = append(matched, cloneAlert(alert))
	}
	s.mu.RUnlock()

	sortNewestFirst(matched)
	total := len(matched)

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if filter.Limit > 0 && offset+filter.Limit < total {
		end = offset + filter.Limit
	}

	page := matched[offset:end]
	return &models.AlertList{
		Alerts:  page,
		Total:   total,
		HasMore: end < total,
	}
}

// GetStatistics 统计指定时间窗口内创建的告警
func (s *Store) GetStatistics(windowHours int) *models.AlertStatistics {
	if windowHours <= 0 {
		windowHours = 24
	}
	cutoff := time.Now().Add(-time.Duration(windowHours) * time.Hour)

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.AlertStatistics{
		BySeverity: make(map[models.AlertSeverity]int),
		ByCategory: make(map[models.AlertCategory]int),
		TopAlerts:  []models.TopAlert{},
	}

	type topKey struct {
		name     string
		category models.AlertCategory
	}
	counts := make(map[topKey]*models.TopAlert)

	var resolutionTotalMs float64
	var resolutionCount int

	for _, alert := range s.alerts {
		if alert.Timestamp.Before(cutoff) {
			continue
		}
		stats.Total++
		stats.BySeverity[alert.Severity]++
		stats.ByCategory[alert.Category]++

		switch alert.Status {
		case models.AlertStatusActive:
			stats.Active++
		case models.AlertStatusResolved:
			stats.Resolved++
			if alert.ResolvedAt != nil {
				resolutionTotalMs += float64(alert.ResolvedAt.Sub(alert.Timestamp).Milliseconds())
				resolutionCount++
			}
		}

		key := topKey{name: alert.Name, category: alert.Category}
		entry, ok := counts[key]
		if !ok {
			entry = &models.TopAlert{Name: alert.Name, Category: alert.Category}
			counts[key] = entry
		}
		entry.Count++
		if alert.Timestamp.After(entry.LastSeen) {
			entry.LastSeen = alert.Timestamp
		}
	}

	if resolutionCount > 0 {
		stats.AvgResolutionTimeMs = resolutionTotalMs / float64(resolutionCount)
	}

	for _, entry := range counts {
		stats.TopAlerts = append(stats.TopAlerts, *entry)
	}
	sort.Slice(stats.TopAlerts, func(i, j int) bool {
		if stats.TopAlerts[i].Count != stats.TopAlerts[j].Count {
			return stats.TopAlerts[i].Count > stats.TopAlerts[j].Count
		}
		return stats.TopAlerts[i].LastSeen.After(stats.TopAlerts[j].LastSeen)
	})
	if len(stats.TopAlerts) > 10 {
		stats.TopAlerts = stats.TopAlerts[:10]
	}

	return stats
}

// sortNewestFirst 按创建时间倒序排序，时间相同按ID排序保证结果稳定
func sortNewestFirst(alerts []*models.Alert) {
	sort.Slice(alerts, func(i, j int) bool {
		if !alerts[i].Timestamp.Equal(alerts[j].Timestamp) {
			return alerts[i].Timestamp.After(alerts[j].Timestamp)
		}
		return alerts[i].ID < alerts[j].ID
	})
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
