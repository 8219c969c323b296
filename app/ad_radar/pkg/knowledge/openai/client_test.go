package openai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/knowledge"
)

// fakeChatModel 记录收到的消息并返回预设结果
type fakeChatModel struct {
	reply *schema.Message
	err   error
	got   []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.got = input
	return f.reply, f.err
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestClient_Query(t *testing.T) {
	fake := &fakeChatModel{reply: schema.AssistantMessage(`{"query":"x"}`, nil)}
	c := New(fake)

	text, err := c.Query(context.Background(), "AI 광고 자동화", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, `{"query":"x"}`, text)

	require.Len(t, fake.got, 1)
	assert.Equal(t, schema.User, fake.got[0].Role)
	assert.Contains(t, fake.got[0].Content, "2025-06-02")
	assert.Contains(t, fake.got[0].Content, "AI 광고 자동화")
}

func TestClient_Query_Errors(t *testing.T) {
	_, err := New(&fakeChatModel{err: errors.New("429 too many requests")}).
		Query(context.Background(), "t", time.Now())
	assert.Error(t, err)

	_, err = New(&fakeChatModel{reply: schema.AssistantMessage("  ", nil)}).
		Query(context.Background(), "t", time.Now())
	assert.ErrorIs(t, err, knowledge.ErrEmptyContent)
}
