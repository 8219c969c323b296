package dispatch

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/model"
)

const (
	testSubject = "광고 인사이트 에이전트 테스트"

	defaultSMTPTimeout = 30 * time.Second
)

// SMTPConfig SMTP 服务器与发件人
type SMTPConfig struct {
	Server   string
	Port     int
	From     string
	Password string
	Timeout  time.Duration // 连接与整个会话的上限，<=0 时取默认值
}

func (c SMTPConfig) addr() string {
	return net.JoinHostPort(c.Server, strconv.Itoa(c.Port))
}

// sendFunc 发送已编码的邮件，测试中可替换
type sendFunc func(ctx context.Context, cfg SMTPConfig, to string, msg []byte) error

// Email 单个收件人的邮件端点
type Email struct {
	cfg  SMTPConfig
	to   string
	send sendFunc
}

// NewEmail 创建邮件端点
func NewEmail(cfg SMTPConfig, to string) *Email {
	return &Email{cfg: cfg, to: to, send: sendWithSTARTTLS}
}

func (e *Email) Channel() string { return ChannelEmail }

func (e *Email) Name() string { return e.to }

// Deliver 发送 multipart/alternative 邮件（纯文本 + HTML）
func (e *Email) Deliver(ctx context.Context, report *model.Report) error {
	subject := "📊 광고 시장 Daily Brief - " + report.DateString()
	msg, err := ComposeMessage(e.cfg.From, e.to, subject, report.Text, report.HTML, time.Now())
	if err != nil {
		return err
	}
	return e.send(ctx, e.cfg, e.to, msg)
}

// SendTest 发送纯文本测试邮件
func (e *Email) SendTest(ctx context.Context) error {
	msg, err := ComposeMessage(e.cfg.From, e.to, testSubject, testMessage, "", time.Now())
	if err != nil {
		return err
	}
	return e.send(ctx, e.cfg, e.to, msg)
}

// ComposeMessage 编码邮件。html 为空时只包含纯文本部分
func ComposeMessage(from, to, subject, text, html string, date time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetSubject(subject)
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: to}})

	var buf bytes.Buffer
	w, err := mail.CreateInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	if err := writePart(w, "text/plain", text); err != nil {
		return nil, err
	}
	if html != "" {
		if err := writePart(w, "text/html", html); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close message: %w", err)
	}
	return buf.Bytes(), nil
}

func writePart(w *mail.InlineWriter, contentType, body string) error {
	var ph mail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	ph.Set("Content-Transfer-Encoding", "base64")

	pw, err := w.CreatePart(ph)
	if err != nil {
		return fmt.Errorf("create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(pw, body); err != nil {
		return fmt.Errorf("write %s part: %w", contentType, err)
	}
	return pw.Close()
}

// sendWithSTARTTLS 明文连接后升级到 TLS 再认证发送
func sendWithSTARTTLS(ctx context.Context, cfg SMTPConfig, to string, msg []byte) error {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", cfg.addr())
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	// 服务器不响应时不能阻塞后续端点
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, cfg.Server)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: cfg.Server}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	auth := smtp.PlainAuth("", cfg.From, cfg.Password, cfg.Server)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := client.Mail(cfg.From); err != nil {
		return fmt.Errorf("failed to set mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set mail recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}
