package notifier

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotification() *Notification {
	return &Notification{
		ID:        "notify-1",
		Title:     "High CPU Usage",
		Content:   "CPU使用率过高",
		Level:     NotificationLevelError,
		Labels:    map[string]string{"source": "server"},
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// TestWebhookNotifierSend 测试Webhook发送及鉴权头
func TestWebhookNotifierSend(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n, err := NewWebhookNotifier("wh", "测试Webhook", &WebhookConfig{
		URL:   server.URL,
		Token: "secret-token",
	})
	require.NoError(t, err)

	result, err := n.Send(testNotification())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Error)

	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "notify-1", gotBody["id"])
	assert.Equal(t, "High CPU Usage", gotBody["title"])
	assert.Equal(t, "error", gotBody["level"])
}

// TestWebhookNotifierServerError 测试非2xx响应视为失败
func TestWebhookNotifierServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n, err := NewWebhookNotifier("wh", "测试Webhook", &WebhookConfig{URL: server.URL})
	require.NoError(t, err)

	result, err := n.Send(testNotification())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

// TestWebhookNotifierUnreachable 测试连接失败时返回失败结果而非错误
func TestWebhookNotifierUnreachable(t *testing.T) {
	n, err := NewWebhookNotifier("wh", "测试Webhook", &WebhookConfig{
		URL:            "http://127.0.0.1:1",
		TimeoutSeconds: 1,
	})
	require.NoError(t, err)

	result, err := n.Send(testNotification())
	require.NoError(t, err)
	assert.False(t, result.Success)
}

// TestWebhookNotifierValidation 测试配置校验和默认值
func TestWebhookNotifierValidation(t *testing.T) {
	_, err := NewWebhookNotifier("wh", "bad", &WebhookConfig{})
	assert.Error(t, err)

	_, err = NewWebhookNotifier("wh", "bad", nil)
	assert.Error(t, err)

	cfg := &WebhookConfig{URL: "http://example.com/hook"}
	n, err := NewWebhookNotifier("wh", "ok", cfg)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, cfg.Method)
	assert.Equal(t, 10, cfg.TimeoutSeconds)
	assert.Equal(t, NotifierTypeWebhook, n.GetType())
	assert.Equal(t, "wh", n.GetID())
	assert.Equal(t, "ok", n.GetName())
}
