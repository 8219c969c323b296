package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/categorizer"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/collector"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/config"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/dispatch"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/knowledge"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/knowledge/factory"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/logger"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/metrics"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/model"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/report"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/storage"
)

// Archiver 运行归档，可为空
type Archiver interface {
	SaveRun(ctx context.Context, run *storage.Run) error
}

// Engine 核心处理引擎
type Engine struct {
	cfg         *config.Config
	store       Archiver
	client      knowledge.Client
	categorizer *categorizer.Categorizer
	renderer    *report.Renderer
	dispatcher  *dispatch.Manager
}

// NewEngine 按配置创建引擎实例，store 为 nil 时不归档
func NewEngine(ctx context.Context, cfg *config.Config, store *storage.Storage) (*Engine, error) {
	client, err := factory.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("生成服务初始化失败: %w", err)
	}

	var archiver Archiver
	if store != nil {
		archiver = store
	}
	return New(cfg, client, dispatch.FromConfig(cfg), archiver), nil
}

// New 使用给定的生成服务客户端与投递端点创建引擎
func New(cfg *config.Config, client knowledge.Client, endpoints []dispatch.Endpoint, store Archiver) *Engine {
	return &Engine{
		cfg:         cfg,
		store:       store,
		client:      client,
		categorizer: categorizer.New(nil),
		renderer:    report.New(report.WithUncategorized(cfg.Report.ShowUncategorized)),
		dispatcher:  dispatch.NewManager(endpoints...),
	}
}

// Dispatcher 返回投递管理器
func (e *Engine) Dispatcher() *dispatch.Manager {
	return e.dispatcher
}

// RunOptions 运行选项
type RunOptions struct {
	AsOf             time.Time // 为零时使用当前时间
	Topics           []string  // 为空时使用配置中的目录
	ProgressCallback func(status string, progress int)
}

// RunResult 一次运行的结果
type RunResult struct {
	RunID    string
	Records  []model.InsightRecord
	Report   *model.Report
	Delivery dispatch.Summary
}

// Run 执行一次完整流程：采集、分组、渲染、投递、归档。
// 运行开始后不响应 ctx 的取消，已采集的部分仍会渲染并投递
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	ctx = context.WithoutCancel(ctx)
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	topics := opts.Topics
	if len(topics) == 0 {
		topics = e.cfg.Topics
	}
	progress := func(status string, p int) {
		if opts.ProgressCallback != nil {
			opts.ProgressCallback(status, p)
		}
	}

	runID := uuid.NewString()
	logger.Log.WithField("run_id", runID).Infof("开始生成 %s 报告，包含 %d 个主题", asOf.Format(time.DateOnly), len(topics))
	progress("starting", 0)

	// 1. 采集
	c := collector.New(e.client,
		collector.WithWorkers(e.cfg.Concurrency.Workers),
		collector.WithProgress(func(done, total int) {
			progress(fmt.Sprintf("collected %d/%d", done, total), 10+done*70/total)
		}),
	)
	records := c.CollectAll(ctx, topics, asOf)

	// 2. 分组与渲染
	progress("rendering report", 80)
	categorized := e.categorizer.Categorize(records)
	rep, err := e.renderer.Build(records, categorized, asOf)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("渲染报告失败: %w", err)
	}
	if e.cfg.Output.Dir != "" {
		if err := writeFiles(e.cfg.Output.Dir, rep); err != nil {
			logger.Log.Errorf("写入报告文件失败: %v", err)
		}
	}

	// 3. 投递
	progress("dispatching", 85)
	delivery := e.dispatcher.Deliver(ctx, rep)

	// 4. 归档
	if e.store != nil {
		if err := e.store.SaveRun(ctx, toRun(runID, rep, categorized, delivery)); err != nil {
			logger.Log.Errorf("保存运行记录失败: %v", err)
		}
	}

	slackOK, slackTotal := delivery.Counts(dispatch.ChannelSlack)
	emailOK, emailTotal := delivery.Counts(dispatch.ChannelEmail)
	logger.Log.WithField("run_id", runID).Infof("✅ 완료! 인사이트 %d건, 슬랙 %d/%d, 이메일 %d/%d",
		len(records), slackOK, slackTotal, emailOK, emailTotal)

	metrics.RunsTotal.WithLabelValues("success").Inc()
	metrics.LastRunRecords.Set(float64(len(records)))
	progress("completed", 100)

	return &RunResult{
		RunID:    runID,
		Records:  records,
		Report:   rep,
		Delivery: delivery,
	}, nil
}

// writeFiles 写入 report-YYYY-MM-DD.txt 与 .html
func writeFiles(dir string, rep *model.Report) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	base := filepath.Join(dir, "report-"+rep.DateString())
	if err := os.WriteFile(base+".txt", []byte(rep.Text), 0644); err != nil {
		return err
	}
	if err := os.WriteFile(base+".html", []byte(rep.HTML), 0644); err != nil {
		return err
	}
	logger.Log.Infof("报告已保存到 %s.{txt,html}", base)
	return nil
}

// toRun 转换为归档结构，记录位置与采集顺序一致
func toRun(runID string, rep *model.Report, c *model.Categorized, delivery dispatch.Summary) *storage.Run {
	category := make(map[string]string, len(rep.Records))
	for _, s := range c.Sections {
		for _, r := range s.Records {
			category[r.Query] = s.Category.Key
		}
	}

	run := &storage.Run{
		ID:          runID,
		Date:        rep.Date,
		RecordCount: len(rep.Records),
		Text:        rep.Text,
		HTML:        rep.HTML,
	}
	for i, r := range rep.Records {
		run.Insights = append(run.Insights, storage.Insight{Position: i, Category: category[r.Query], Record: r})
	}
	for _, o := range delivery.Outcomes {
		d := storage.Delivery{Channel: o.Channel, Endpoint: o.Endpoint, OK: o.OK}
		if o.Err != nil {
			d.Error = o.Err.Error()
		}
		run.Deliveries = append(run.Deliveries, d)
	}
	return run
}
