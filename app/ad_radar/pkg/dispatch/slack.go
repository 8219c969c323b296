package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/model"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/parser"
)

const (
	digestRecords    = 5
	digestSummaryLen = 200

	testMessage = "🎉 테스트 성공! 광고 인사이트 에이전트가 준비되었습니다."
)

// Block Slack Block Kit 元素
type Block map[string]any

// Payload Webhook 请求体
type Payload struct {
	Blocks []Block `json:"blocks,omitempty"`
	Text   string  `json:"text"`
}

// Slack 聊天 Webhook 端点
type Slack struct {
	url    string
	index  int
	client *http.Client
}

// NewSlack 创建 Webhook 端点，index 从 1 开始，仅用于日志标识
func NewSlack(webhookURL string, index int, client *http.Client) *Slack {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Slack{url: webhookURL, index: index, client: client}
}

func (s *Slack) Channel() string { return ChannelSlack }

// Name 只保留 host，避免 Webhook 路径中的密钥进入日志
func (s *Slack) Name() string {
	host := "invalid-url"
	if u, err := url.Parse(s.url); err == nil && u.Host != "" {
		host = u.Host
	}
	return fmt.Sprintf("#%d %s", s.index, host)
}

// Deliver 发送报告摘要
func (s *Slack) Deliver(ctx context.Context, report *model.Report) error {
	return s.post(ctx, Digest(report))
}

// SendTest 发送测试消息
func (s *Slack) SendTest(ctx context.Context) error {
	return s.post(ctx, Payload{Text: testMessage})
}

func (s *Slack) post(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}

// Digest 构造 Slack 摘要：标题、总数、前五条记录
func Digest(report *model.Report) Payload {
	date := report.DateString()

	blocks := []Block{
		{
			"type": "header",
			"text": Block{"type": "plain_text", "text": "🎯 광고 시장 Daily Brief - " + date},
		},
		{
			"type": "section",
			"text": Block{"type": "mrkdwn", "text": fmt.Sprintf("*%d개*의 핵심 인사이트를 수집했습니다!", len(report.Records))},
		},
		{"type": "divider"},
	}

	records := report.Records
	if len(records) > digestRecords {
		records = records[:digestRecords]
	}
	for i, item := range records {
		blocks = append(blocks, Block{
			"type": "section",
			"text": Block{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*%d. %s*\n%s...", i+1, item.Query, parser.Truncate(item.Summary, digestSummaryLen)),
			},
		})
	}

	blocks = append(blocks, Block{
		"type": "context",
		"elements": []Block{
			{"type": "mrkdwn", "text": "📧 전체 리포트는 이메일을 확인해주세요!"},
		},
	})

	return Payload{Blocks: blocks, Text: "광고 시장 Daily Brief - " + date}
}
