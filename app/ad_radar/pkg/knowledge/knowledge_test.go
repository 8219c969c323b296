package knowledge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

type stubClient struct{ calls int }

func (s *stubClient) Query(ctx context.Context, topic string, asOf time.Time) (string, error) {
	s.calls++
	return "ok:" + topic, nil
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("retail media 성장", time.Date(2025, 1, 9, 15, 0, 0, 0, time.UTC))
	assert.Contains(t, p, "오늘 날짜는 2025-01-09입니다.")
	assert.Contains(t, p, `"retail media 성장"`)
	for _, field := range []string{`"query"`, `"key_findings"`, `"summary"`, `"impact"`, `"actionable_insight"`, `"sources"`} {
		assert.Contains(t, p, field)
	}
}

func TestNewLimiter(t *testing.T) {
	assert.Equal(t, rate.Inf, NewLimiter(5, 0).Limit())

	l := NewLimiter(0, 120)
	assert.Equal(t, rate.Limit(2), l.Limit())
	assert.Equal(t, 1, l.Burst())
}

func TestLimited_Query(t *testing.T) {
	stub := &stubClient{}
	c := WithLimiter(stub, NewLimiter(1, 0))

	out, err := c.Query(context.Background(), "t", time.Now())
	assert.NoError(t, err)
	assert.Equal(t, "ok:t", out)

	// 已取消的 context 直接返回失败，不调用下游
	blocked := WithLimiter(stub, rate.NewLimiter(rate.Every(time.Hour), 1))
	_, _ = blocked.Query(context.Background(), "first", time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = blocked.Query(ctx, "second", time.Now())
	assert.Error(t, err)
	assert.Equal(t, 2, stub.calls)
}
