package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"text/template"
	"time"

	"go.uber.org/zap"

	"infrawatch/pkg/common"
)

// WebhookNotifier Webhook通知通道
type WebhookNotifier struct {
	config *WebhookConfig
	client *http.Client
	logger *zap.Logger
	id     string
	name   string
}

// 默认的请求体模板
const defaultWebhookBodyTemplate = `{
  "id": "{{.ID}}",
  "title": "{{.Title}}",
  "content": "{{.Content}}",
  "level": "{{.Level}}",
  "created_at": "{{formatTime .CreatedAt}}",
  "labels": {{toJSON .Labels}},
  "data": {{toJSON .Data}}
}`

// NewWebhookNotifier 创建Webhook通知通道
func NewWebhookNotifier(id, name string, config *WebhookConfig) (*WebhookNotifier, error) {
	if config == nil {
		return nil, fmt.Errorf("Webhook通道配置不能为空")
	}
	if config.URL == "" {
		return nil, fmt.Errorf("Webhook URL不能为空")
	}

	if config.Method == "" {
		config.Method = http.MethodPost
	}
	if config.BodyTemplate == "" {
		config.BodyTemplate = defaultWebhookBodyTemplate
	}
	if config.TimeoutSeconds == 0 {
		config.TimeoutSeconds = 10
	}

	return &WebhookNotifier{
		config: config,
		client: &http.Client{Timeout: time.Duration(config.TimeoutSeconds) * time.Second},
		logger: common.GetLogger().GetZapLogger("webhook-notifier"),
		id:     id,
		name:   name,
	}, nil
}

// Send 发送Webhook通知
func (n *WebhookNotifier) Send(notification *Notification) (*NotificationResult, error) {
	start := time.Now()
	result := &NotificationResult{
		NotifierID:   n.id,
		NotifierName: n.name,
		NotifierType: NotifierTypeWebhook,
		Success:      false,
		Timestamp:    start.Unix(),
	}

	bodyTmpl := template.New("body").Funcs(template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.Format(time.RFC3339)
		},
		"toJSON": func(v interface{}) string {
			if v == nil {
				return "null"
			}
			b, err := json.Marshal(v)
			if err != nil {
				return "null"
			}
			return string(b)
		},
	})

	bodyTmpl, err := bodyTmpl.Parse(n.config.BodyTemplate)
	if err != nil {
		result.Error = fmt.Sprintf("解析请求体模板失败: %s", err.Error())
		return result, nil
	}

	var bodyBuf bytes.Buffer
	if err := bodyTmpl.Execute(&bodyBuf, notification); err != nil {
		result.Error = fmt.Sprintf("渲染请求体模板失败: %s", err.Error())
		return result, nil
	}

	req, err := http.NewRequest(n.config.Method, n.config.URL, &bodyBuf)
	if err != nil {
		result.Error = fmt.Sprintf("创建HTTP请求失败: %s", err.Error())
		return result, nil
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "InfraWatch-Notifier/1.0")
	if n.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+n.config.Token)
	}
	for key, value := range n.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("发送HTTP请求失败: %s", err.Error())
		return result, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Error = fmt.Sprintf("HTTP响应状态异常: %d", resp.StatusCode)
		return result, nil
	}

	result.Success = true
	result.ResponseTime = time.Since(start).Milliseconds()
	n.logger.Info("Webhook通知发送成功",
		zap.String("id", notification.ID),
		zap.String("title", notification.Title),
		zap.String("url", n.config.URL),
		zap.Int("status_code", resp.StatusCode))

	return result, nil
}

// GetType 获取通道类型
func (n *WebhookNotifier) GetType() NotifierType {
	return NotifierTypeWebhook
}

// GetID 获取通道ID
func (n *WebhookNotifier) GetID() string {
	return n.id
}

// GetName 获取通道名称
func (n *WebhookNotifier) GetName() string {
	return n.name
}
