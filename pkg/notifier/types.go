// Package notifier 提供告警通知的发送通道实现和分发器
package notifier

import (
	"time"

	"infrawatch/pkg/monitoring/models"
)

// NotifierType 表示通知通道的类型
type NotifierType string

const (
	// NotifierTypeEmail 邮件通知通道
	NotifierTypeEmail NotifierType = "email"
	// NotifierTypeWebhook Webhook通知通道
	NotifierTypeWebhook NotifierType = "webhook"
)

// NotificationLevel 表示通知级别
type NotificationLevel string

const (
	// NotificationLevelInfo 信息级别
	NotificationLevelInfo NotificationLevel = "info"
	// NotificationLevelWarning 警告级别
	NotificationLevelWarning NotificationLevel = "warning"
	// NotificationLevelError 错误级别
	NotificationLevelError NotificationLevel = "error"
	// NotificationLevelCritical 严重级别
	NotificationLevelCritical NotificationLevel = "critical"
)

// Notification 表示一条待发送的通知消息
type Notification struct {
	// 消息ID，与触发告警的ID一致
	ID string `json:"id"`
	// 消息标题
	Title string `json:"title"`
	// 消息内容
	Content string `json:"content"`
	// 消息级别
	Level NotificationLevel `json:"level"`
	// 标签
	Labels map[string]string `json:"labels,omitempty"`
	// 创建时间
	CreatedAt time.Time `json:"created_at"`
	// 额外数据
	Data map[string]interface{} `json:"data,omitempty"`
}

// NotificationResult 表示一次通知发送的结果
type NotificationResult struct {
	// 通道ID
	NotifierID string `json:"notifier_id"`
	// 通道名称
	NotifierName string `json:"notifier_name"`
	// 通道类型
	NotifierType NotifierType `json:"notifier_type"`
	// 是否成功
	Success bool `json:"success"`
	// 错误信息（如果失败）
	Error string `json:"error,omitempty"`
	// 发送时间戳
	Timestamp int64 `json:"timestamp"`
	// 响应时间（毫秒）
	ResponseTime int64 `json:"response_time,omitempty"`
}

// Notifier 通知通道接口
type Notifier interface {
	// Send 发送通知
	Send(notification *Notification) (*NotificationResult, error)
	// GetType 获取通道类型
	GetType() NotifierType
	// GetID 获取通道ID
	GetID() string
	// GetName 获取通道名称
	GetName() string
}

// EmailConfig 邮件通道配置
type EmailConfig struct {
	// 收件人列表
	Recipients []string `json:"recipients" yaml:"recipients"`
	// SMTP服务器地址
	SMTPServer string `json:"smtp_server" yaml:"smtp_server"`
	// SMTP服务器端口
	SMTPPort int `json:"smtp_port" yaml:"smtp_port"`
	// SMTP用户名
	SMTPUsername string `json:"smtp_username,omitempty" yaml:"smtp_username"`
	// SMTP密码
	SMTPPassword string `json:"smtp_password,omitempty" yaml:"smtp_password"`
	// 发件人地址
	FromAddress string `json:"from_address" yaml:"from_address"`
	// 邮件主题模板
	SubjectTemplate string `json:"subject_template,omitempty" yaml:"subject_template"`
	// 邮件内容模板
	BodyTemplate string `json:"body_template,omitempty" yaml:"body_template"`
	// SMTP会话超时时间（秒），默认10秒
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds"`
	// 最低通知级别，低于此严重程度的告警不经此通道发送
	MinSeverity models.AlertSeverity `json:"min_severity,omitempty" yaml:"min_severity"`
}

// WebhookConfig Webhook通道配置
type WebhookConfig struct {
	// Webhook URL
	URL string `json:"url" yaml:"url"`
	// HTTP方法，默认POST
	Method string `json:"method,omitempty" yaml:"method"`
	// 鉴权令牌，设置后作为Bearer Token发送
	Token string `json:"token,omitempty" yaml:"token"`
	// 自定义请求头
	Headers map[string]string `json:"headers,omitempty" yaml:"headers"`
	// 请求体模板
	BodyTemplate string `json:"body_template,omitempty" yaml:"body_template"`
	// 超时时间（秒），默认10
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds"`
	// 最低通知级别
	MinSeverity models.AlertSeverity `json:"min_severity,omitempty" yaml:"min_severity"`
}

// LevelForSeverity 将告警严重程度映射为通知级别
func LevelForSeverity(severity models.AlertSeverity) NotificationLevel {
	switch severity {
	case models.AlertSeverityCritical:
		return NotificationLevelCritical
	case models.AlertSeverityHigh:
		return NotificationLevelError
	case models.AlertSeverityMedium:
		return NotificationLevelWarning
	default:
		return NotificationLevelInfo
	}
}
