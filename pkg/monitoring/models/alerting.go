// Package models 定义告警相关的数据模型
package models

import (
	"time"
)

// AlertSeverity 表示告警的严重程度
type AlertSeverity string

const (
	// AlertSeverityLow 低级别告警
	AlertSeverityLow AlertSeverity = "LOW"
	// AlertSeverityMedium 中级别告警
	AlertSeverityMedium AlertSeverity = "MEDIUM"
	// AlertSeverityHigh 高级别告警
	AlertSeverityHigh AlertSeverity = "HIGH"
	// AlertSeverityCritical 严重级别告警
	AlertSeverityCritical AlertSeverity = "CRITICAL"
)

// severityRank 严重程度排序权重
var severityRank = map[AlertSeverity]int{
	AlertSeverityLow:      1,
	AlertSeverityMedium:   2,
	AlertSeverityHigh:     3,
	AlertSeverityCritical: 4,
}

// AtLeast 判断严重程度是否不低于指定级别
func (s AlertSeverity) AtLeast(min AlertSeverity) bool {
	return severityRank[s] >= severityRank[min]
}

// AlertCategory 表示告警的分类
type AlertCategory string

const (
	// AlertCategorySystem 系统告警
	AlertCategorySystem AlertCategory = "SYSTEM"
	// AlertCategoryPerformance 性能告警
	AlertCategoryPerformance AlertCategory = "PERFORMANCE"
	// AlertCategorySecurity 安全告警
	AlertCategorySecurity AlertCategory = "SECURITY"
	// AlertCategoryBusiness 业务告警
	AlertCategoryBusiness AlertCategory = "BUSINESS"
	// AlertCategoryDatabase 数据库告警
	AlertCategoryDatabase AlertCategory = "DATABASE"
	// AlertCategoryCache 缓存告警
	AlertCategoryCache AlertCategory = "CACHE"
)

// AlertStatus 表示告警的生命周期状态
type AlertStatus string

const (
	// AlertStatusActive 活跃状态
	AlertStatusActive AlertStatus = "ACTIVE"
	// AlertStatusAcknowledged 已确认状态
	AlertStatusAcknowledged AlertStatus = "ACKNOWLEDGED"
	// AlertStatusResolved 已解决状态
	AlertStatusResolved AlertStatus = "RESOLVED"
	// AlertStatusSuppressed 已抑制状态
	AlertStatusSuppressed AlertStatus = "SUPPRESSED"
)

// AlertConditionType 表示告警条件的比较操作符
type AlertConditionType string

const (
	// ConditionGreaterThan 大于条件
	ConditionGreaterThan AlertConditionType = "gt"
	// ConditionGreaterThanOrEqual 大于等于条件
	ConditionGreaterThanOrEqual AlertConditionType = "gte"
	// ConditionLessThan 小于条件
	ConditionLessThan AlertConditionType = "lt"
	// ConditionLessThanOrEqual 小于等于条件
	ConditionLessThanOrEqual AlertConditionType = "lte"
	// ConditionEqual 等于条件
	ConditionEqual AlertConditionType = "eq"
)

// Evaluate 按比较操作符检查当前值是否满足阈值条件
func (c AlertConditionType) Evaluate(value, threshold float64) bool {
	switch c {
	case ConditionGreaterThan:
		return value > threshold
	case ConditionGreaterThanOrEqual:
		return value >= threshold
	case ConditionLessThan:
		return value < threshold
	case ConditionLessThanOrEqual:
		return value <= threshold
	case ConditionEqual:
		return value == threshold
	default:
		return false
	}
}

// AlertThreshold 表示触发告警的阈值定义
type AlertThreshold struct {
	Metric   string             `json:"metric"`   // 指标名称
	Operator AlertConditionType `json:"operator"` // 比较操作符
	Value    float64            `json:"value"`    // 阈值
	Severity AlertSeverity      `json:"severity"` // 触发后的严重程度
}

// Alert 表示一个具体的告警实例
type Alert struct {
	// 告警ID，创建时生成
	ID string `json:"id"`
	// 告警名称
	Name string `json:"name"`
	// 告警描述
	Description string `json:"description,omitempty"`
	// 严重程度
	Severity AlertSeverity `json:"severity"`
	// 分类
	Category AlertCategory `json:"category"`
	// 来源（server/database/cache/system等）
	Source string `json:"source"`
	// 触发告警的指标名称
	Metric string `json:"metric,omitempty"`
	// 阈值定义（可选）
	Threshold *AlertThreshold `json:"threshold,omitempty"`
	// 触发时的当前值
	CurrentValue float64 `json:"current_value"`
	// 标签集合
	Tags []string `json:"tags"`
	// 附加元数据
	Metadata map[string]string `json:"metadata"`
	// 关联ID（可选）
	CorrelationID string `json:"correlation_id,omitempty"`
	// 创建时间，创建后不可变
	Timestamp time.Time `json:"timestamp"`
	// 生命周期状态
	Status AlertStatus `json:"status"`
	// 确认人（解决时复用为解决人）
	AcknowledgedBy string `json:"acknowledged_by,omitempty"`
	// 确认时间
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	// 备注
	Notes string `json:"notes,omitempty"`
	// 解决时间，仅在已解决状态下设置
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	// 抑制截止时间，仅在已抑制状态下设置
	SuppressedUntil *time.Time `json:"suppressed_until,omitempty"`
}

// AlertRequest 表示一次告警创建请求，形状与Alert一致但不含ID/状态/时间戳
type AlertRequest struct {
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	Severity      AlertSeverity     `json:"severity,omitempty"`
	Category      AlertCategory     `json:"category,omitempty"`
	Source        string            `json:"source,omitempty"`
	Metric        string            `json:"metric,omitempty"`
	Threshold     *AlertThreshold   `json:"threshold,omitempty"`
	CurrentValue  float64           `json:"current_value"`
	Tags          []string          `json:"tags,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
}

// AlertFilter 表示告警查询的过滤条件
type AlertFilter struct {
	Severity AlertSeverity `json:"severity,omitempty"` // 按严重程度过滤
	Category AlertCategory `json:"category,omitempty"` // 按分类过滤
	Source   string        `json:"source,omitempty"`   // 按来源过滤
	Status   AlertStatus   `json:"status,omitempty"`   // 按状态过滤
	Limit    int           `json:"limit,omitempty"`    // 分页大小
	Offset   int           `json:"offset,omitempty"`   // 分页偏移
}

// AlertList 表示分页后的告警查询结果
type AlertList struct {
	Alerts  []*Alert `json:"alerts"`   // 当前页的告警，按创建时间倒序
	Total   int      `json:"total"`    // 过滤后的告警总数
	HasMore bool     `json:"has_more"` // 是否还有后续页
}

// TopAlert 表示按发生次数排名的告警条目
type TopAlert struct {
	Name     string        `json:"name"`      // 告警名称
	Category AlertCategory `json:"category"`  // 分类
	Count    int           `json:"count"`     // 窗口内发生次数
	LastSeen time.Time     `json:"last_seen"` // 最近一次发生时间
}

// AlertStatistics 表示一个时间窗口内的告警统计
type AlertStatistics struct {
	Total               int                   `json:"total"`                  // 窗口内告警总数
	Active              int                   `json:"active"`                 // 活跃告警数
	Resolved            int                   `json:"resolved"`               // 已解决告警数
	BySeverity          map[AlertSeverity]int `json:"by_severity"`            // 按严重程度统计
	ByCategory          map[AlertCategory]int `json:"by_category"`            // 按分类统计
	AvgResolutionTimeMs float64               `json:"avg_resolution_time_ms"` // 平均解决耗时（毫秒）
	TopAlerts           []TopAlert            `json:"top_alerts"`             // 按发生次数排名的告警
}
