package server

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/config"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/engine"
	arLogger "github.com/iWorld-y/ad_radar/app/ad_radar/pkg/logger"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/storage"
	"github.com/iWorld-y/ad_radar/app/display/internal/conf"
)

// RadarConfig 将 conf.Radar 转换为流水线配置，并叠加环境变量与默认值
func RadarConfig(c *conf.Radar) (*config.Config, error) {
	cfg := &config.Config{}
	if c.Llm != nil {
		cfg.LLM = config.LLMConfig{
			Provider:  c.Llm.Provider,
			BaseURL:   c.Llm.BaseUrl,
			APIKey:    c.Llm.ApiKey,
			Model:     c.Llm.Model,
			MaxTokens: int(c.Llm.MaxTokens),
			Timeout:   int(c.Llm.Timeout),
		}
	}
	cfg.Topics = c.Topics
	if c.Report != nil {
		cfg.Report.ShowUncategorized = c.Report.ShowUncategorized
	}
	if c.Slack != nil {
		cfg.Slack.Webhooks = c.Slack.Webhooks
	}
	if c.Email != nil {
		cfg.Email = config.EmailConfig{
			SMTPServer: c.Email.SmtpServer,
			SMTPPort:   int(c.Email.SmtpPort),
			From:       c.Email.From,
			Password:   c.Email.Password,
			To:         c.Email.To,
			Timeout:    int(c.Email.Timeout),
		}
	}
	if c.Log != nil {
		cfg.Log = config.LogConfig{Level: c.Log.Level, File: c.Log.File}
	}
	if c.Concurrency != nil {
		cfg.Concurrency = config.ConcurrencyConfig{
			Workers: int(c.Concurrency.Workers),
			QPS:     int(c.Concurrency.Qps),
			RPM:     int(c.Concurrency.Rpm),
		}
	}

	if err := cfg.Complete(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// NewRadarEngine 初始化 ad_radar 引擎，c 为 nil 时不启用触发
func NewRadarEngine(c *conf.Radar, store *storage.Storage, logger log.Logger) (*engine.Engine, func(), error) {
	if c == nil {
		return nil, func() {}, nil
	}

	cfg, err := RadarConfig(c)
	if err != nil {
		log.NewHelper(logger).Errorf("Invalid radar config: %v", err)
		return nil, nil, err
	}

	// 初始化日志
	if err := arLogger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.NewHelper(logger).Errorf("Failed to init ad_radar logger: %v", err)
		_ = arLogger.InitLogger("info", "") // 降级处理
	}

	// 初始化核心引擎
	eng, err := engine.NewEngine(context.Background(), cfg, store)
	if err != nil {
		log.NewHelper(logger).Errorf("Failed to init engine: %v", err)
		return nil, nil, err
	}

	cleanup := func() {
		log.NewHelper(logger).Info("Cleaning up ad_radar engine")
	}

	return eng, cleanup, nil
}
