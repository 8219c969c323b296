package dispatch

import (
	"strings"
	"time"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/config"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/logger"
)

// FromConfig 按配置构造端点列表：先所有 Webhook，后所有邮件收件人
func FromConfig(cfg *config.Config) []Endpoint {
	var endpoints []Endpoint

	index := 0
	for _, u := range cfg.Slack.Webhooks {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		index++
		endpoints = append(endpoints, NewSlack(u, index, nil))
	}

	var recipients []string
	for _, to := range cfg.Email.To {
		if to = strings.TrimSpace(to); to != "" {
			recipients = append(recipients, to)
		}
	}
	if len(recipients) > 0 && !cfg.Email.Ready() {
		logger.Log.Warnf("⚠️ 발신자 이메일 또는 비밀번호가 없어 이메일 %d건을 건너뜁니다", len(recipients))
		return endpoints
	}

	smtpCfg := SMTPConfig{
		Server:   cfg.Email.SMTPServer,
		Port:     cfg.Email.SMTPPort,
		From:     cfg.Email.From,
		Password: cfg.Email.Password,
		Timeout:  time.Duration(cfg.Email.Timeout) * time.Second,
	}
	for _, to := range recipients {
		endpoints = append(endpoints, NewEmail(smtpCfg, to))
	}
	return endpoints
}
