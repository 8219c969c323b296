package collector

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/knowledge"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/logger"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/metrics"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/model"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/parser"
)

// ProgressFunc 进度回调：已完成主题数 / 总数
type ProgressFunc func(done, total int)

// Collector 按目录顺序采集所有主题的洞察
type Collector struct {
	client   knowledge.Client
	workers  int
	progress ProgressFunc
}

// Option 采集器选项
type Option func(*Collector)

// WithWorkers 设置并发数，<=1 时串行
func WithWorkers(n int) Option {
	return func(c *Collector) { c.workers = n }
}

// WithProgress 设置进度回调
func WithProgress(fn ProgressFunc) Option {
	return func(c *Collector) { c.progress = fn }
}

// New 创建采集器
func New(client knowledge.Client, opts ...Option) *Collector {
	c := &Collector{client: client, workers: 1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CollectAll 采集所有主题。请求失败的主题被跳过，结果顺序与目录顺序一致
func (c *Collector) CollectAll(ctx context.Context, topics []string, asOf time.Time) []model.InsightRecord {
	total := len(topics)
	logger.Log.Infof("🚀 %s 광고 시장 인사이트 수집 시작, 총 %d개 주제", asOf.Format(time.DateOnly), total)

	slots := make([]*model.InsightRecord, total)

	var mu sync.Mutex
	done := 0
	finish := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		if c.progress != nil {
			c.progress(done, total)
		}
	}

	if c.workers <= 1 {
		for i, topic := range topics {
			slots[i] = c.collectOne(ctx, i, total, topic, asOf)
			finish()
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.workers)
		for i, topic := range topics {
			g.Go(func() error {
				slots[i] = c.collectOne(gctx, i, total, topic, asOf)
				finish()
				return nil
			})
		}
		_ = g.Wait()
	}

	records := make([]model.InsightRecord, 0, total)
	for _, rec := range slots {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	logger.Log.Infof("✨ 수집 완료! 총 %d/%d개 인사이트 확보", len(records), total)
	return records
}

// collectOne 处理单个主题，失败时返回 nil
func (c *Collector) collectOne(ctx context.Context, i, total int, topic string, asOf time.Time) *model.InsightRecord {
	log := logger.Log.WithField("topic", topic)
	log.Infof("[%d/%d] 🔍 검색 중", i+1, total)

	start := time.Now()
	raw, err := c.client.Query(ctx, topic, asOf)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordTopic("failed", elapsed)
		log.Warnf("[%d/%d] ⚠️ 결과 없음: %v", i+1, total, err)
		return nil
	}

	res := parser.Parse(topic, raw, asOf)
	metrics.RecordTopic(res.Kind.String(), elapsed)
	if res.Kind == parser.Fallback {
		log.Warnf("[%d/%d] JSON 파싱 실패, 대체 결과 사용: %v", i+1, total, res.Err)
	} else {
		log.Debugf("[%d/%d] ✅ 완료", i+1, total)
	}
	return &res.Record
}
