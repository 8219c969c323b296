package domain

// RunSummary 运行摘要信息
type RunSummary struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	CreatedAt       string `json:"created_at"`
	RecordCount     int    `json:"record_count"`
	DeliveredOK     int    `json:"delivered_ok"`
	DeliveriesTotal int    `json:"deliveries_total"`
}

// Insight 单条洞察
type Insight struct {
	Category          string   `json:"category"`
	Query             string   `json:"query"`
	KeyFindings       []string `json:"key_findings"`
	Summary           string   `json:"summary"`
	Impact            string   `json:"impact"`
	ActionableInsight string   `json:"actionable_insight"`
	Sources           []string `json:"sources"`
	IsFallback        bool     `json:"is_fallback"`
}

// Delivery 投递结果
type Delivery struct {
	Channel  string `json:"channel"`
	Endpoint string `json:"endpoint"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// Run 运行详情
type Run struct {
	ID          string      `json:"id"`
	Date        string      `json:"date"`
	CreatedAt   string      `json:"created_at"`
	RecordCount int         `json:"record_count"`
	Insights    []*Insight  `json:"insights"`
	Deliveries  []*Delivery `json:"deliveries"`
	HTML        string      `json:"-"`
}
