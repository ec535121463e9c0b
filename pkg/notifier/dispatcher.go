package notifier

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"infrawatch/pkg/common"
	"infrawatch/pkg/monitoring/models"
)

// channel 已注册的通知通道及其发送条件
type channel struct {
	notifier    Notifier
	minSeverity models.AlertSeverity
}

// Dispatcher 通知分发器，将告警转换为通知消息并分发到所有符合条件的通道。
// 分发是尽力而为的：单个通道失败只记录日志，不影响其他通道。
type Dispatcher struct {
	mu       sync.RWMutex
	channels map[string]*channel
	logger   *zap.Logger
}

// NewDispatcher 创建通知分发器
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = common.GetLogger().GetZapLogger("notify-dispatcher")
	}
	return &Dispatcher{
		channels: make(map[string]*channel),
		logger:   logger,
	}
}

// Register 注册通知通道。minSeverity为空时所有告警都经此通道发送。
func (d *Dispatcher) Register(n Notifier, minSeverity models.AlertSeverity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[n.GetID()] = &channel{notifier: n, minSeverity: minSeverity}
	d.logger.Info("通知通道已注册",
		zap.String("id", n.GetID()),
		zap.String("name", n.GetName()),
		zap.String("type", string(n.GetType())))
}

// Unregister 注销通知通道
func (d *Dispatcher) Unregister(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.channels[id]; !ok {
		return false
	}
	delete(d.channels, id)
	return true
}

// ChannelCount 返回已注册的通道数量
func (d *Dispatcher) ChannelCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.channels)
}

// Dispatch 将告警分发到所有符合严重程度条件的通道。
// 所有尝试的通道都失败时返回错误，部分失败只记录日志。
func (d *Dispatcher) Dispatch(alert *models.Alert) error {
	if alert == nil {
		return fmt.Errorf("告警不能为空")
	}

	d.mu.RLock()
	var targets []*channel
	for _, ch := range d.channels {
		if ch.minSeverity != "" && !alert.Severity.AtLeast(ch.minSeverity) {
			continue
		}
		targets = append(targets, ch)
	}
	d.mu.RUnlock()

	if len(targets) == 0 {
		return nil
	}

	notification := notificationForAlert(alert)

	var failed int
	for _, ch := range targets {
		result, err := ch.notifier.Send(notification)
		if err != nil {
			failed++
			d.logger.Error("通知发送异常",
				zap.String("channel", ch.notifier.GetName()),
				zap.String("alert_id", alert.ID),
				zap.Error(err))
			continue
		}
		if !result.Success {
			failed++
			d.logger.Error("通知发送失败",
				zap.String("channel", ch.notifier.GetName()),
				zap.String("alert_id", alert.ID),
				zap.String("error", result.Error))
		}
	}

	if failed == len(targets) {
		return fmt.Errorf("所有通知通道发送失败: %d个通道", failed)
	}
	return nil
}

// notificationForAlert 将告警转换为通知消息
func notificationForAlert(alert *models.Alert) *Notification {
	labels := map[string]string{
		"severity": string(alert.Severity),
		"category": string(alert.Category),
		"source":   alert.Source,
	}
	if alert.Metric != "" {
		labels["metric"] = alert.Metric
	}
	for key, value := range alert.Metadata {
		labels[key] = value
	}

	data := map[string]interface{}{
		"current_value": alert.CurrentValue,
	}
	if alert.Threshold != nil {
		data["threshold"] = alert.Threshold.Value
		data["operator"] = string(alert.Threshold.Operator)
	}

	id := alert.ID
	if id == "" {
		id = uuid.New().String()
	}

	return &Notification{
		ID:        id,
		Title:     alert.Name,
		Content:   alert.Description,
		Level:     LevelForSeverity(alert.Severity),
		Labels:    labels,
		CreatedAt: alert.Timestamp,
		Data:      data,
	}
}
