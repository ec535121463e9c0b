package notifier

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"infrawatch/pkg/common"
)

// EmailNotifier 邮件通知通道
type EmailNotifier struct {
	config *EmailConfig
	logger *zap.Logger
	id     string
	name   string
}

// 默认的邮件主题模板
const defaultSubjectTemplate = "【{{.Level}}】{{.Title}}"

// 默认的邮件内容模板
const defaultBodyTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>告警通知</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { width: 100%; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f5f5f5; padding: 10px; border-radius: 5px; }
        .content { margin: 20px 0; }
        .footer { font-size: 12px; color: #999; margin-top: 30px; }
        .level-info { color: #2196F3; }
        .level-warning { color: #FF9800; }
        .level-error { color: #F44336; }
        .level-critical { color: #880E4F; }
        table { width: 100%; border-collapse: collapse; margin: 15px 0; }
        th, td { padding: 8px; text-align: left; border-bottom: 1px solid #ddd; }
        th { background-color: #f5f5f5; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h2 class="level-{{.Level}}">【{{.Level}}】{{.Title}}</h2>
        </div>
        <div class="content">
            <p><strong>告警内容:</strong></p>
            <div>{{.Content}}</div>
            <p><strong>触发时间:</strong> {{formatTime .CreatedAt}}</p>

            {{if .Labels}}
            <h3>标签信息</h3>
            <table>
                <tr>
                    <th>名称</th>
                    <th>值</th>
                </tr>
                {{range $key, $value := .Labels}}
                <tr>
                    <td>{{$key}}</td>
                    <td>{{$value}}</td>
                </tr>
                {{end}}
            </table>
            {{end}}

            {{if .Data}}
            <h3>附加数据</h3>
            <table>
                <tr>
                    <th>字段</th>
                    <th>值</th>
                </tr>
                {{range $key, $value := .Data}}
                <tr>
                    <td>{{$key}}</td>
                    <td>{{$value}}</td>
                </tr>
                {{end}}
            </table>
            {{end}}
        </div>
        <div class="footer">
            <p>此邮件由监控系统自动发送，请勿回复。</p>
        </div>
    </div>
</body>
</html>
`

// NewEmailNotifier 创建邮件通知通道
func NewEmailNotifier(id, name string, config *EmailConfig) (*EmailNotifier, error) {
	if config == nil {
		return nil, fmt.Errorf("邮件通道配置不能为空")
	}
	if len(config.Recipients) == 0 {
		return nil, fmt.Errorf("收件人列表不能为空")
	}
	if config.SMTPServer == "" {
		return nil, fmt.Errorf("SMTP服务器地址不能为空")
	}
	if config.SMTPPort == 0 {
		return nil, fmt.Errorf("SMTP服务器端口不能为0")
	}
	if config.FromAddress == "" {
		return nil, fmt.Errorf("发件人地址不能为空")
	}

	if config.SubjectTemplate == "" {
		config.SubjectTemplate = defaultSubjectTemplate
	}
	if config.BodyTemplate == "" {
		config.BodyTemplate = defaultBodyTemplate
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = 10
	}

	return &EmailNotifier{
		config: config,
		logger: common.GetLogger().GetZapLogger("email-notifier"),
		id:     id,
		name:   name,
	}, nil
}

// Send 发送邮件通知
func (n *EmailNotifier) Send(notification *Notification) (*NotificationResult, error) {
	start := time.Now()
	result := &NotificationResult{
		NotifierID:   n.id,
		NotifierName: n.name,
		NotifierType: NotifierTypeEmail,
		Success:      false,
		Timestamp:    start.Unix(),
	}

	subjectTmpl, err := template.New("subject").Parse(n.config.SubjectTemplate)
	if err != nil {
		result.Error = fmt.Sprintf("解析主题模板失败: %s", err.Error())
		return result, nil
	}

	var subjectBuf bytes.Buffer
	if err := subjectTmpl.Execute(&subjectBuf, notification); err != nil {
		result.Error = fmt.Sprintf("渲染主题模板失败: %s", err.Error())
		return result, nil
	}
	subject := subjectBuf.String()

	bodyTmpl := template.New("body").Funcs(template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04:05")
		},
	})

	bodyTmpl, err = bodyTmpl.Parse(n.config.BodyTemplate)
	if err != nil {
		result.Error = fmt.Sprintf("解析正文模板失败: %s", err.Error())
		return result, nil
	}

	var bodyBuf bytes.Buffer
	if err := bodyTmpl.Execute(&bodyBuf, notification); err != nil {
		result.Error = fmt.Sprintf("渲染正文模板失败: %s", err.Error())
		return result, nil
	}

	message := n.buildMessage(subject, bodyBuf.String())
	if err := n.sendMail(message); err != nil {
		result.Error = fmt.Sprintf("发送邮件失败: %s", err.Error())
		return result, nil
	}

	result.Success = true
	result.ResponseTime = time.Since(start).Milliseconds()
	n.logger.Info("邮件通知发送成功",
		zap.String("id", notification.ID),
		zap.String("title", notification.Title),
		zap.Strings("recipients", n.config.Recipients))

	return result, nil
}

// GetType 获取通道类型
func (n *EmailNotifier) GetType() NotifierType {
	return NotifierTypeEmail
}

// GetID 获取通道ID
func (n *EmailNotifier) GetID() string {
	return n.id
}

// GetName 获取通道名称
func (n *EmailNotifier) GetName() string {
	return n.name
}

// buildMessage 构建邮件消息
func (n *EmailNotifier) buildMessage(subject, body string) string {
	var message bytes.Buffer

	message.WriteString(fmt.Sprintf("From: %s\r\n", n.config.FromAddress))
	message.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(n.config.Recipients, ", ")))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)

	return message.String()
}

// sendMail 发送邮件，整个SMTP会话受超时约束
func (n *EmailNotifier) sendMail(message string) error {
	addr := fmt.Sprintf("%s:%d", n.config.SMTPServer, n.config.SMTPPort)
	timeout := time.Duration(n.config.TimeoutSeconds) * time.Second

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("连接SMTP服务器失败: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		conn.Close()
		return fmt.Errorf("设置连接超时失败: %w", err)
	}

	client, err := smtp.NewClient(conn, n.config.SMTPServer)
	if err != nil {
		conn.Close()
		return fmt.Errorf("创建SMTP客户端失败: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: n.config.SMTPServer}); err != nil {
			return fmt.Errorf("启用STARTTLS失败: %w", err)
		}
	}

	if n.config.SMTPUsername != "" && n.config.SMTPPassword != "" {
		auth := smtp.PlainAuth("", n.config.SMTPUsername, n.config.SMTPPassword, n.config.SMTPServer)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP认证失败: %w", err)
		}
	}

	if err := client.Mail(n.config.FromAddress); err != nil {
		return fmt.Errorf("设置发件人失败: %w", err)
	}
	for _, recipient := range n.config.Recipients {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("设置收件人失败: %w", err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("打开数据通道失败: %w", err)
	}
	if _, err := writer.Write([]byte(message)); err != nil {
		return fmt.Errorf("写入邮件内容失败: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("提交邮件内容失败: %w", err)
	}

	return client.Quit()
}
