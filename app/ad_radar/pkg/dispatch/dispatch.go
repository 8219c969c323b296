package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/logger"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/metrics"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/model"
)

// 投递渠道
const (
	ChannelSlack = "slack"
	ChannelEmail = "email"
)

// Endpoint 一个投递目标
type Endpoint interface {
	Channel() string
	// Name 日志中使用的端点标识，不包含凭据
	Name() string
	Deliver(ctx context.Context, report *model.Report) error
	// SendTest 发送一条连通性测试消息
	SendTest(ctx context.Context) error
}

// Outcome 单个端点的投递结果
type Outcome struct {
	Channel  string
	Endpoint string
	OK       bool
	Err      error
	Duration time.Duration
}

// Summary 一次投递的全部结果，顺序与端点列表一致
type Summary struct {
	Outcomes []Outcome
}

// Counts 返回指定渠道的成功数与总数
func (s Summary) Counts(channel string) (success, total int) {
	for _, o := range s.Outcomes {
		if o.Channel != channel {
			continue
		}
		total++
		if o.OK {
			success++
		}
	}
	return success, total
}

// String 形如 "slack 1/2, email 0/1"
func (s Summary) String() string {
	ss, st := s.Counts(ChannelSlack)
	es, et := s.Counts(ChannelEmail)
	return fmt.Sprintf("slack %d/%d, email %d/%d", ss, st, es, et)
}

// Manager 依次投递到每个端点，单个端点失败不影响其余端点
type Manager struct {
	endpoints []Endpoint
}

// NewManager 创建投递管理器
func NewManager(endpoints ...Endpoint) *Manager {
	return &Manager{endpoints: endpoints}
}

// Endpoints 返回端点列表
func (m *Manager) Endpoints() []Endpoint {
	return m.endpoints
}

// Deliver 将报告投递到所有端点，每个端点只尝试一次
func (m *Manager) Deliver(ctx context.Context, report *model.Report) Summary {
	return m.each(ctx, "전송", func(ctx context.Context, ep Endpoint) error {
		return ep.Deliver(ctx, report)
	})
}

// Check 向所有端点发送测试消息
func (m *Manager) Check(ctx context.Context) Summary {
	return m.each(ctx, "테스트", func(ctx context.Context, ep Endpoint) error {
		return ep.SendTest(ctx)
	})
}

func (m *Manager) each(ctx context.Context, action string, fn func(context.Context, Endpoint) error) Summary {
	summary := Summary{Outcomes: make([]Outcome, 0, len(m.endpoints))}
	if len(m.endpoints) == 0 {
		return summary
	}

	totals := map[string]int{}
	for _, ep := range m.endpoints {
		totals[ep.Channel()]++
	}
	seen := map[string]int{}

	for _, ep := range m.endpoints {
		ch := ep.Channel()
		seen[ch]++

		start := time.Now()
		err := fn(ctx, ep)
		o := Outcome{
			Channel:  ch,
			Endpoint: ep.Name(),
			OK:       err == nil,
			Err:      err,
			Duration: time.Since(start),
		}
		summary.Outcomes = append(summary.Outcomes, o)
		metrics.RecordDelivery(ch, o.OK)

		if err != nil {
			logger.Log.Errorf("   [%d/%d] ❌ %s %s 실패 (%s): %v", seen[ch], totals[ch], ch, action, o.Endpoint, err)
			continue
		}
		logger.Log.Infof("   [%d/%d] ✅ %s %s 완료 (%s)", seen[ch], totals[ch], ch, action, o.Endpoint)
	}
	return summary
}
