package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/categorizer"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/model"
)

var asOf = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

func sample() []model.InsightRecord {
	return []model.InsightRecord{
		{
			Query:             "AI 광고 자동화",
			KeyFindings:       []string{"f1", "f2", "f3", "f4"},
			Summary:           "자동화 확대",
			ActionableInsight: "PMax 테스트",
		},
		{
			Query:       "디지털 광고 시장 트렌드 2025",
			KeyFindings: []string{},
			Summary:     "시장 성장",
		},
		{
			Query:   "쿠키리스 광고 대응",
			Summary: "<b>first-party</b> 데이터",
		},
	}
}

func TestRender_Layout(t *testing.T) {
	records := sample()
	c := categorizer.New(nil).Categorize(records)
	text := New().Render(c, asOf, len(records))

	assert.True(t, strings.HasPrefix(text, "\n╔"+strings.Repeat("═", 58)+"╗\n"))
	assert.Contains(t, text, "🎯 광고 시장 Daily Brief - 2025-07-01")
	assert.Contains(t, text, "✅ 수집된 인사이트: 3건")
	assert.Contains(t, text, "📅 다음 브리핑: 2025-07-02")
	assert.True(t, strings.HasSuffix(text, "Powered by Ad Radar 🤖\n"))

	// 分组按固定顺序出现，空分组不出现
	trend := strings.Index(text, categorizer.Trend.Title)
	tech := strings.Index(text, categorizer.Technology.Title)
	require.True(t, trend > 0 && tech > 0)
	assert.Less(t, trend, tech)
	assert.NotContains(t, text, categorizer.Platform.Title)
	assert.NotContains(t, text, categorizer.Regulation.Title)

	// 最多三条要点
	assert.Contains(t, text, "   • f3\n")
	assert.NotContains(t, text, "f4")
	assert.Contains(t, text, "💡 액션 아이템: PMax 테스트")

	// 无要点时不输出标题
	assert.Equal(t, 1, strings.Count(text, "핵심 포인트:"))

	// 未命中的记录只计入总数
	assert.NotContains(t, text, "쿠키리스 광고 대응")
	assert.NotContains(t, text, categorizer.Other.Title)
}

func TestRender_ShowUncategorized(t *testing.T) {
	records := sample()
	c := categorizer.New(nil).Categorize(records)
	text := New(WithUncategorized(true)).Render(c, asOf, len(records))

	assert.Contains(t, text, categorizer.Other.Title)
	assert.Contains(t, text, "📌 쿠키리스 광고 대응")
	assert.Less(t, strings.Index(text, categorizer.Technology.Title), strings.Index(text, categorizer.Other.Title))
}

func TestRender_Deterministic(t *testing.T) {
	records := sample()
	c := categorizer.New(nil).Categorize(records)
	r := New()
	assert.Equal(t, r.Render(c, asOf, 3), r.Render(c, asOf, 3))
}

func TestRender_Empty(t *testing.T) {
	text := New().Render(categorizer.New(nil).Categorize(nil), asOf, 0)
	assert.Contains(t, text, "✅ 수집된 인사이트: 0건")
	assert.NotContains(t, text, "📌")
}

func TestRenderHTML(t *testing.T) {
	records := sample()
	c := categorizer.New(nil).Categorize(records)

	rep, err := New(WithUncategorized(true)).Build(records, c, asOf)
	require.NoError(t, err)

	assert.Equal(t, asOf, rep.Date)
	assert.Len(t, rep.Records, 3)
	assert.Contains(t, rep.HTML, "<title>광고 시장 Daily Brief - 2025-07-01</title>")
	assert.Contains(t, rep.HTML, "💌 매일 아침 최신 광고 시장 인사이트를 받아보세요")
	assert.Contains(t, rep.HTML, "<br>")
	assert.Contains(t, rep.HTML, "&lt;b&gt;first-party&lt;/b&gt;")
	assert.NotContains(t, rep.HTML, "═")
	assert.Contains(t, rep.HTML, "─")
	assert.NotContains(t, rep.Text, "<br>")
}
