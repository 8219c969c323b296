package parser

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/model"
)

// 降级记录使用的固定文案与截断长度（按字符计）
const (
	FallbackImpact     = "상세 분석 필요"
	FallbackActionable = "추가 조사 권장"

	fallbackFindingLen = 200
	fallbackSummaryLen = 300
)

// Kind 解析结果分支
type Kind int

const (
	// Parsed 严格解析成功
	Parsed Kind = iota
	// Fallback 解析失败，使用原文截断生成的降级记录
	Fallback
)

func (k Kind) String() string {
	if k == Parsed {
		return "parsed"
	}
	return "fallback"
}

// Result 解析结果。Fallback 时 Err 记录失败原因，仅用于日志
type Result struct {
	Kind   Kind
	Record model.InsightRecord
	Err    error
}

// Parse 将生成服务的原始文本转换为 InsightRecord，任何输入都不会 panic
func Parse(topic, raw string, asOf time.Time) Result {
	date := asOf.Format(time.DateOnly)

	rec, err := decodeStrict(stripFence(raw))
	if err != nil {
		return Result{Kind: Fallback, Record: fallbackRecord(topic, raw, date), Err: err}
	}

	if rec.Query == "" {
		rec.Query = topic
	}
	rec.Timestamp = date
	rec.IsFallback = false
	rec.Normalize()
	return Result{Kind: Parsed, Record: rec}
}

// stripFence 去掉 markdown 代码块，优先 ```json
func stripFence(s string) string {
	for _, marker := range []string{"```json", "```"} {
		i := strings.Index(s, marker)
		if i < 0 {
			continue
		}
		body := s[i+len(marker):]
		if j := strings.Index(body, "```"); j >= 0 {
			body = body[:j]
		}
		return strings.TrimSpace(body)
	}
	return s
}

// decodeStrict 只接受 JSON 对象，字段名需精确匹配
func decodeStrict(body string) (model.InsightRecord, error) {
	var rec model.InsightRecord

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return rec, fmt.Errorf("json unmarshal: %w", err)
	}
	if fields == nil {
		return rec, fmt.Errorf("json unmarshal: not an object")
	}

	targets := []struct {
		key string
		dst any
	}{
		{"query", &rec.Query},
		{"key_findings", &rec.KeyFindings},
		{"summary", &rec.Summary},
		{"impact", &rec.Impact},
		{"actionable_insight", &rec.ActionableInsight},
		{"sources", &rec.Sources},
	}
	for _, t := range targets {
		raw, ok := fields[t.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, t.dst); err != nil {
			return rec, fmt.Errorf("field %s: %w", t.key, err)
		}
	}
	return rec, nil
}

func fallbackRecord(topic, raw, date string) model.InsightRecord {
	return model.InsightRecord{
		Query:             topic,
		KeyFindings:       []string{Truncate(raw, fallbackFindingLen)},
		Summary:           Truncate(raw, fallbackSummaryLen),
		Impact:            FallbackImpact,
		ActionableInsight: FallbackActionable,
		Sources:           []string{},
		Timestamp:         date,
		IsFallback:        true,
	}
}

// Truncate 截取前 n 个字符（rune）
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
