package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/knowledge"
)

// Client 兼容 OpenAI 协议的生成服务（DeepSeek、Qwen 等）
type Client struct {
	chatModel model.BaseChatModel
}

// NewClient 初始化 eino ChatModel
func NewClient(ctx context.Context, baseURL, apiKey, modelName string, maxTokens int, timeout time.Duration) (*Client, error) {
	cfg := &openai.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   modelName,
		Timeout: timeout,
	}
	if maxTokens > 0 {
		cfg.MaxTokens = &maxTokens
	}

	chatModel, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	return New(chatModel), nil
}

// New 使用已有的 ChatModel 创建客户端
func New(chatModel model.BaseChatModel) *Client {
	return &Client{chatModel: chatModel}
}

// Ensure Client implements knowledge.Client
var _ knowledge.Client = (*Client)(nil)

// Query implements knowledge.Client
func (c *Client) Query(ctx context.Context, topic string, asOf time.Time) (string, error) {
	messages := []*schema.Message{
		schema.UserMessage(knowledge.BuildPrompt(topic, asOf)),
	}

	resp, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", knowledge.ErrEmptyContent
	}
	return resp.Content, nil
}
