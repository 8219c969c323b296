package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/knowledge"
)

// Client Anthropic Messages API 客户端
type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// NewClient 创建一个新的 Anthropic 客户端，SDK 自带的重试被关闭
func NewClient(apiKey, baseURL, model string, maxTokens int, timeout time.Duration) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Client{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
		timeout:   timeout,
	}
}

// Ensure Client implements knowledge.Client
var _ knowledge.Client = (*Client)(nil)

// Query implements knowledge.Client
func (c *Client) Query(ctx context.Context, topic string, asOf time.Time) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(knowledge.BuildPrompt(topic, asOf))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic api call failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", knowledge.ErrEmptyContent
	}
	return sb.String(), nil
}
