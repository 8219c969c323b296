package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ErrEmptyContent 响应中没有可用的文本内容
var ErrEmptyContent = errors.New("knowledge: response has no text content")

// Client 外部知识服务：对单个主题发起一次生成请求，返回原始文本
//
// 任何失败（网络错误、非成功状态码、响应结构异常）都以 error 返回，调用方不区分类型，也不重试。
type Client interface {
	Query(ctx context.Context, topic string, asOf time.Time) (string, error)
}

const promptTpl = `
오늘 날짜는 %s입니다.

다음 주제에 대해 최신 정보를 웹에서 검색하고 핵심 인사이트를 정리해주세요:
"%s"

다음 형식으로 JSON 응답해주세요:
{
    "query": "검색어",
    "key_findings": ["핵심 발견사항 1", "핵심 발견사항 2", "핵심 발견사항 3"],
    "summary": "2-3문장 요약",
    "impact": "광고사업개발 담당자에게 미치는 영향",
    "actionable_insight": "실행 가능한 인사이트",
    "sources": ["출처1", "출처2"]
}

검색 결과가 없거나 관련 정보가 없다면 해당 내용을 명시해주세요.
`

// BuildPrompt 构造包含日期与主题的提示词
func BuildPrompt(topic string, asOf time.Time) string {
	return fmt.Sprintf(promptTpl, asOf.Format(time.DateOnly), topic)
}

// NewLimiter 按 RPM/QPS 创建限流器，rpm<=0 时不限流
func NewLimiter(qps, rpm int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if qps <= 0 {
		qps = 1
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), qps)
}

// Limited 在每次请求前等待限流器
type Limited struct {
	next    Client
	limiter *rate.Limiter
}

// WithLimiter 为 Client 增加限流
func WithLimiter(next Client, limiter *rate.Limiter) *Limited {
	return &Limited{next: next, limiter: limiter}
}

// Ensure Limited implements Client
var _ Client = (*Limited)(nil)

// Query implements Client
func (l *Limited) Query(ctx context.Context, topic string, asOf time.Time) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return l.next.Query(ctx, topic, asOf)
}
