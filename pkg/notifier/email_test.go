package notifier

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEmailNotifierValidation 测试邮件通道的配置校验
func TestEmailNotifierValidation(t *testing.T) {
	_, err := NewEmailNotifier("em", "bad", nil)
	assert.Error(t, err)

	_, err = NewEmailNotifier("em", "bad", &EmailConfig{})
	assert.Error(t, err)

	_, err = NewEmailNotifier("em", "bad", &EmailConfig{
		Recipients: []string{"ops@example.com"},
	})
	assert.Error(t, err, "缺少SMTP服务器应报错")

	_, err = NewEmailNotifier("em", "bad", &EmailConfig{
		Recipients: []string{"ops@example.com"},
		SMTPServer: "smtp.example.com",
		SMTPPort:   465,
	})
	assert.Error(t, err, "缺少发件人应报错")
}

// TestEmailNotifierDefaults 测试默认模板填充
func TestEmailNotifierDefaults(t *testing.T) {
	cfg := &EmailConfig{
		Recipients:  []string{"ops@example.com"},
		SMTPServer:  "smtp.example.com",
		SMTPPort:    465,
		FromAddress: "alert@example.com",
	}
	n, err := NewEmailNotifier("em", "邮件", cfg)
	require.NoError(t, err)

	assert.Equal(t, defaultSubjectTemplate, cfg.SubjectTemplate)
	assert.Equal(t, defaultBodyTemplate, cfg.BodyTemplate)
	assert.Equal(t, 10, cfg.TimeoutSeconds)
	assert.Equal(t, NotifierTypeEmail, n.GetType())
}

// TestEmailBuildMessage 测试邮件消息的构建
func TestEmailBuildMessage(t *testing.T) {
	n, err := NewEmailNotifier("em", "邮件", &EmailConfig{
		Recipients:  []string{"a@example.com", "b@example.com"},
		SMTPServer:  "smtp.example.com",
		SMTPPort:    465,
		FromAddress: "alert@example.com",
	})
	require.NoError(t, err)

	message := n.buildMessage("测试主题", "<p>正文</p>")
	assert.Contains(t, message, "From: alert@example.com")
	assert.Contains(t, message, "To: a@example.com, b@example.com")
	assert.Contains(t, message, "Subject: 测试主题")
	assert.Contains(t, message, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, message, "<p>正文</p>")
}

// TestEmailSendTimeout 测试SMTP服务器无响应时发送在超时时间内返回失败
func TestEmailSendTimeout(t *testing.T) {
	// 接受连接但从不发送SMTP欢迎消息的服务器
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				<-done
				c.Close()
			}(conn)
		}
	}()

	addr := listener.Addr().(*net.TCPAddr)
	n, err := NewEmailNotifier("em", "邮件", &EmailConfig{
		Recipients:     []string{"ops@example.com"},
		SMTPServer:     addr.IP.String(),
		SMTPPort:       addr.Port,
		FromAddress:    "alert@example.com",
		TimeoutSeconds: 1,
	})
	require.NoError(t, err)

	start := time.Now()
	result, err := n.Send(&Notification{
		ID:        "n1",
		Title:     "测试",
		Content:   "内容",
		Level:     NotificationLevelError,
		CreatedAt: time.Now(),
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Less(t, elapsed, 5*time.Second, fmt.Sprintf("发送应在超时时间内返回, 实际耗时 %v", elapsed))
}
