package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/config"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/knowledge"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/knowledge/anthropic"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/knowledge/openai"
)

// NewClient 根据配置创建生成服务客户端，并套上限流器
func NewClient(ctx context.Context, cfg *config.Config) (knowledge.Client, error) {
	llm := cfg.LLM
	if llm.APIKey == "" {
		return nil, fmt.Errorf("llm api key is missing")
	}
	timeout := time.Duration(llm.Timeout) * time.Second

	var client knowledge.Client
	switch llm.Provider {
	case "", "anthropic":
		client = anthropic.NewClient(llm.APIKey, llm.BaseURL, llm.Model, llm.MaxTokens, timeout)

	case "openai":
		if llm.BaseURL == "" {
			return nil, fmt.Errorf("openai base url is missing")
		}
		c, err := openai.NewClient(ctx, llm.BaseURL, llm.APIKey, llm.Model, llm.MaxTokens, timeout)
		if err != nil {
			return nil, err
		}
		client = c

	default:
		return nil, fmt.Errorf("unknown llm provider: %s", llm.Provider)
	}

	limiter := knowledge.NewLimiter(cfg.Concurrency.QPS, cfg.Concurrency.RPM)
	return knowledge.WithLimiter(client, limiter), nil
}
