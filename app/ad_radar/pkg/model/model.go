package model

import "time"

// Topic 待查询的主题，来源于配置中的有序目录
type Topic = string

// InsightRecord 单个主题的结构化洞察
type InsightRecord struct {
	Query             string   `json:"query"`
	KeyFindings       []string `json:"key_findings"`
	Summary           string   `json:"summary"`
	Impact            string   `json:"impact"`
	ActionableInsight string   `json:"actionable_insight"`
	Sources           []string `json:"sources"`
	Timestamp         string   `json:"timestamp"` // 运行日期，由采集器写入
	IsFallback        bool     `json:"-"`         // 解析失败时的降级记录
}

// Normalize 保证切片字段非 nil，下游渲染无需判空
func (r *InsightRecord) Normalize() {
	if r.KeyFindings == nil {
		r.KeyFindings = []string{}
	}
	if r.Sources == nil {
		r.Sources = []string{}
	}
}

// Category 报告分组
type Category struct {
	Key   string // trend / platform / technology / regulation
	Title string // 报告中展示的标题
}

// Section 一个分组及其记录（保持采集顺序）
type Section struct {
	Category Category
	Records  []InsightRecord
}

// Categorized 分组结果，Sections 按固定分组顺序排列
type Categorized struct {
	Sections      []Section
	Uncategorized []InsightRecord
}

// Records 返回指定分组的记录
func (c *Categorized) Records(key string) []InsightRecord {
	for _, s := range c.Sections {
		if s.Category.Key == key {
			return s.Records
		}
	}
	return nil
}

// Report 一次运行生成的报告
type Report struct {
	Date        time.Time
	Records     []InsightRecord // 采集到的全部记录（含未分组）
	Categorized *Categorized
	Text        string
	HTML        string
}

// DateString 报告日期 YYYY-MM-DD
func (r *Report) DateString() string {
	return r.Date.Format(time.DateOnly)
}
