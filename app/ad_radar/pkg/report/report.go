package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/categorizer"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/model"
)

const (
	maxFindings = 3
	ruleWidth   = 60
	bannerWidth = 58
)

var (
	heavyRule = strings.Repeat("=", ruleWidth)
	lightRule = strings.Repeat("-", ruleWidth)
	boxRule   = strings.Repeat("═", bannerWidth)
)

// Renderer 报告渲染器
type Renderer struct {
	showUncategorized bool
}

// Option 渲染选项
type Option func(*Renderer)

// WithUncategorized 在报告末尾追加未分组记录
func WithUncategorized(show bool) Option {
	return func(r *Renderer) { r.showUncategorized = show }
}

// New 创建渲染器
func New(opts ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Build 生成纯文本与 HTML 两种形式的报告，records 为采集到的全部记录
func (r *Renderer) Build(records []model.InsightRecord, c *model.Categorized, asOf time.Time) (*model.Report, error) {
	text := r.Render(c, asOf, len(records))
	html, err := RenderHTML(text, asOf)
	if err != nil {
		return nil, err
	}
	return &model.Report{
		Date:        asOf,
		Records:     records,
		Categorized: c,
		Text:        text,
		HTML:        html,
	}, nil
}

// Render 渲染纯文本报告。相同输入总是得到相同输出
func (r *Renderer) Render(c *model.Categorized, asOf time.Time, total int) string {
	var sb strings.Builder
	date := asOf.Format(time.DateOnly)

	sb.WriteString("\n╔" + boxRule + "╗\n")
	fmt.Fprintf(&sb, "║         🎯 광고 시장 Daily Brief - %s         ║\n", date)
	sb.WriteString("╚" + boxRule + "╝\n\n")
	sb.WriteString("안녕하세요! 오늘의 광고 시장 핵심 인사이트를 정리했습니다.\n\n")

	if c != nil {
		for _, section := range c.Sections {
			writeSection(&sb, section.Category.Title, section.Records)
		}
		if r.showUncategorized {
			writeSection(&sb, categorizer.Other.Title, c.Uncategorized)
		}
	}

	fmt.Fprintf(&sb, "\n%s\n📊 오늘의 종합 인사이트\n%s\n\n", heavyRule, heavyRule)
	fmt.Fprintf(&sb, "✅ 수집된 인사이트: %d건\n", total)
	fmt.Fprintf(&sb, "📅 다음 브리핑: %s\n\n", asOf.AddDate(0, 0, 1).Format(time.DateOnly))

	sb.WriteString("\n💬 피드백이나 추가로 모니터링하고 싶은 주제가 있다면 알려주세요!\n\n")
	sb.WriteString("---\nPowered by Ad Radar 🤖\n")
	return sb.String()
}

// writeSection 空分组不输出
func writeSection(sb *strings.Builder, title string, records []model.InsightRecord) {
	if len(records) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s\n%s\n%s\n\n", heavyRule, title, heavyRule)

	for _, item := range records {
		fmt.Fprintf(sb, "📌 %s\n", item.Query)
		fmt.Fprintf(sb, "   %s\n\n", item.Summary)

		if len(item.KeyFindings) > 0 {
			sb.WriteString("   핵심 포인트:\n")
			findings := item.KeyFindings
			if len(findings) > maxFindings {
				findings = findings[:maxFindings]
			}
			for _, f := range findings {
				fmt.Fprintf(sb, "   • %s\n", f)
			}
		}

		if item.ActionableInsight != "" {
			fmt.Fprintf(sb, "\n   💡 액션 아이템: %s\n", item.ActionableInsight)
		}

		sb.WriteString("\n" + lightRule + "\n\n")
	}
}
