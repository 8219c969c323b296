package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asOf = time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)

const validJSON = `{
    "query": "디지털 광고 시장 트렌드 2025",
    "key_findings": ["리테일 미디어 성장", "CTV 확대", "AI 입찰"],
    "summary": "디지털 광고 시장은 계속 성장 중입니다.",
    "impact": "예산 재배분 필요",
    "actionable_insight": "리테일 미디어 파일럿 집행",
    "sources": ["https://example.com/a"]
}`

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "bare json", raw: validJSON},
		{name: "json fence", raw: "```json\n" + validJSON + "\n```"},
		{name: "generic fence", raw: "```\n" + validJSON + "\n```"},
		{name: "prose around json fence", raw: "검색 결과입니다.\n```json\n" + validJSON + "\n```\n참고하세요."},
		{name: "json fence preferred over earlier generic fence", raw: "```text\nnote\n```\n```json\n" + validJSON + "\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse("topic", tt.raw, asOf)
			require.Equal(t, Parsed, res.Kind, "err: %v", res.Err)

			rec := res.Record
			assert.False(t, rec.IsFallback)
			assert.Equal(t, "디지털 광고 시장 트렌드 2025", rec.Query)
			assert.Equal(t, []string{"리테일 미디어 성장", "CTV 확대", "AI 입찰"}, rec.KeyFindings)
			assert.Equal(t, "디지털 광고 시장은 계속 성장 중입니다.", rec.Summary)
			assert.Equal(t, "예산 재배분 필요", rec.Impact)
			assert.Equal(t, "리테일 미디어 파일럿 집행", rec.ActionableInsight)
			assert.Equal(t, []string{"https://example.com/a"}, rec.Sources)
			assert.Equal(t, "2025-05-20", rec.Timestamp)
		})
	}
}

func TestParse_MissingFieldsAreDefaulted(t *testing.T) {
	res := Parse("네이버 광고 신규 상품", `{"summary": "요약"}`, asOf)
	require.Equal(t, Parsed, res.Kind)
	assert.Equal(t, "네이버 광고 신규 상품", res.Record.Query)
	assert.NotNil(t, res.Record.KeyFindings)
	assert.Empty(t, res.Record.KeyFindings)
	assert.NotNil(t, res.Record.Sources)
}

func TestParse_Fallback(t *testing.T) {
	long := strings.Repeat("가", 350)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "prose", raw: "죄송하지만 관련 정보를 찾을 수 없습니다."},
		{name: "long prose", raw: long},
		{name: "broken json", raw: `{"query": "x", "summary": `},
		{name: "array", raw: `["a", "b"]`},
		{name: "null", raw: "null"},
		{name: "wrong field type", raw: `{"query": "x", "key_findings": "not a list"}`},
		{name: "empty", raw: ""},
		{name: "unterminated fence", raw: "```json\n{not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse("쿠키리스 광고 대응", tt.raw, asOf)
			require.Equal(t, Fallback, res.Kind)
			assert.Error(t, res.Err)

			rec := res.Record
			assert.True(t, rec.IsFallback)
			assert.Equal(t, "쿠키리스 광고 대응", rec.Query)
			assert.Equal(t, Truncate(tt.raw, 300), rec.Summary)
			require.Len(t, rec.KeyFindings, 1)
			assert.Equal(t, Truncate(tt.raw, 200), rec.KeyFindings[0])
			assert.Equal(t, FallbackImpact, rec.Impact)
			assert.Equal(t, FallbackActionable, rec.ActionableInsight)
			assert.NotNil(t, rec.Sources)
			assert.Empty(t, rec.Sources)
			assert.Equal(t, "2025-05-20", rec.Timestamp)
		})
	}
}

func TestParse_FallbackTruncatesByCharacter(t *testing.T) {
	raw := strings.Repeat("광", 350)
	rec := Parse("t", raw, asOf).Record
	assert.Equal(t, 300, len([]rune(rec.Summary)))
	assert.Equal(t, 200, len([]rune(rec.KeyFindings[0])))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "한국", Truncate("한국어", 2))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "parsed", Parsed.String())
	assert.Equal(t, "fallback", Fallback.String())
}
