package categorizer

import (
	"strings"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/model"
)

// 固定分组
var (
	Trend      = model.Category{Key: "trend", Title: "🔥 오늘의 핵심 트렌드"}
	Platform   = model.Category{Key: "platform", Title: "📱 주요 플랫폼 동향"}
	Technology = model.Category{Key: "technology", Title: "🤖 기술 & 혁신"}
	Regulation = model.Category{Key: "regulation", Title: "⚖️ 규제 & 정책"}

	// Other 未命中任何关键词的记录，仅在开启时渲染
	Other = model.Category{Key: "other", Title: "📎 기타"}
)

// Rule 分组及其触发关键词（小写）
type Rule struct {
	Category model.Category
	Keywords []string
}

// DefaultRules 默认规则表，顺序即匹配优先级
var DefaultRules = []Rule{
	{Category: Trend, Keywords: []string{"트렌드", "시장", "성장", "retail"}},
	{Category: Platform, Keywords: []string{"네이버", "카카오", "구글", "메타", "틱톡"}},
	{Category: Technology, Keywords: []string{"ai", "기술", "자동화", "측정"}},
	{Category: Regulation, Keywords: []string{"규제", "법", "정책", "보호"}},
}

// Categorizer 按规则表顺序匹配，第一个命中的分组胜出
type Categorizer struct {
	rules []Rule
}

// New 使用给定规则表创建分类器，rules 为空时使用 DefaultRules
func New(rules []Rule) *Categorizer {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Categorizer{rules: rules}
}

// Match 返回 query 命中的第一个分组
func (c *Categorizer) Match(query string) (model.Category, bool) {
	q := strings.ToLower(query)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(q, kw) {
				return rule.Category, true
			}
		}
	}
	return model.Category{}, false
}

// Categorize 将记录分配到分组，组内保持原始顺序；未命中的记录放入 Uncategorized
func (c *Categorizer) Categorize(records []model.InsightRecord) *model.Categorized {
	out := &model.Categorized{Sections: make([]model.Section, len(c.rules))}
	index := make(map[string]int, len(c.rules))
	for i, rule := range c.rules {
		out.Sections[i] = model.Section{Category: rule.Category}
		index[rule.Category.Key] = i
	}

	for _, rec := range records {
		cat, ok := c.Match(rec.Query)
		if !ok {
			out.Uncategorized = append(out.Uncategorized, rec)
			continue
		}
		i := index[cat.Key]
		out.Sections[i].Records = append(out.Sections[i].Records, rec)
	}
	return out
}
