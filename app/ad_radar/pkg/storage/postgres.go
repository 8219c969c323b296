package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/config"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/model"
)

// ErrNotFound 运行记录不存在
var ErrNotFound = errors.New("run not found")

// Run 一次运行的归档
type Run struct {
	ID          string
	Date        time.Time // 报告日期
	CreatedAt   time.Time
	RecordCount int
	Text        string
	HTML        string
	Insights    []Insight
	Deliveries  []Delivery
}

// Insight 归档的单条洞察及其分组
type Insight struct {
	Position int
	Category string // 未分组时为空
	Record   model.InsightRecord
}

// Delivery 归档的投递结果
type Delivery struct {
	Channel  string
	Endpoint string
	OK       bool
	Error    string
}

// RunSummary 列表页使用的运行摘要
type RunSummary struct {
	ID              string
	Date            time.Time
	CreatedAt       time.Time
	RecordCount     int
	DeliveredOK     int
	DeliveriesTotal int
}

type Storage struct {
	db *sql.DB
}

// NewStorage 连接数据库并初始化表结构
func NewStorage(cfg config.DBConfig) (*Storage, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := New(db)
	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// New 使用已有连接，不做 schema 初始化
func New(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS report_runs (
		id UUID PRIMARY KEY,
		report_date DATE NOT NULL,
		record_count INTEGER NOT NULL,
		text_report TEXT,
		html_report TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS insights (
		id SERIAL PRIMARY KEY,
		run_id UUID REFERENCES report_runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		category TEXT,
		query TEXT NOT NULL,
		key_findings JSONB,
		summary TEXT,
		impact TEXT,
		actionable_insight TEXT,
		sources JSONB,
		is_fallback BOOLEAN DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS deliveries (
		id SERIAL PRIMARY KEY,
		run_id UUID REFERENCES report_runs(id) ON DELETE CASCADE,
		channel TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		ok BOOLEAN NOT NULL,
		error TEXT
	)`,
}

// InitSchema 建表（幂等）
func (s *Storage) InitSchema(ctx context.Context) error {
	for _, query := range schema {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}
	return nil
}

// SaveRun 在一个事务中写入运行、洞察与投递结果
func (s *Storage) SaveRun(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO report_runs (id, report_date, record_count, text_report, html_report)
		VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Date.Format(time.DateOnly), run.RecordCount, sanitize(run.Text), sanitize(run.HTML))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, in := range run.Insights {
		findings, err := encodeList(in.Record.KeyFindings)
		if err != nil {
			return fmt.Errorf("failed to encode key findings: %w", err)
		}
		sources, err := encodeList(in.Record.Sources)
		if err != nil {
			return fmt.Errorf("failed to encode sources: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO insights (run_id, position, category, query, key_findings, summary, impact, actionable_insight, sources, is_fallback)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			run.ID, in.Position, in.Category, sanitize(in.Record.Query), string(findings),
			sanitize(in.Record.Summary), sanitize(in.Record.Impact), sanitize(in.Record.ActionableInsight),
			string(sources), in.Record.IsFallback)
		if err != nil {
			return fmt.Errorf("failed to insert insight: %w", err)
		}
	}

	for _, d := range run.Deliveries {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO deliveries (run_id, channel, endpoint, ok, error)
			VALUES ($1, $2, $3, $4, $5)`,
			run.ID, d.Channel, d.Endpoint, d.OK, d.Error)
		if err != nil {
			return fmt.Errorf("failed to insert delivery: %w", err)
		}
	}

	return tx.Commit()
}

// ListRuns 按创建时间倒序分页，page 从 1 开始
func (s *Storage) ListRuns(ctx context.Context, page, pageSize int) ([]*RunSummary, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.report_date, r.created_at, r.record_count,
			COUNT(d.id) FILTER (WHERE d.ok), COUNT(d.id)
		FROM report_runs r
		LEFT JOIN deliveries d ON d.run_id = r.id
		GROUP BY r.id, r.report_date, r.created_at, r.record_count
		ORDER BY r.created_at DESC
		LIMIT $1 OFFSET $2`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var summaries []*RunSummary
	for rows.Next() {
		r := &RunSummary{}
		if err := rows.Scan(&r.ID, &r.Date, &r.CreatedAt, &r.RecordCount, &r.DeliveredOK, &r.DeliveriesTotal); err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM report_runs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count runs: %w", err)
	}

	return summaries, total, nil
}

// GetRun 读取完整的运行归档，不存在时返回 ErrNotFound
func (s *Storage) GetRun(ctx context.Context, id string) (*Run, error) {
	// id 列为 UUID，非法值直接视为不存在
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	run := &Run{ID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT report_date, created_at, record_count, COALESCE(text_report, ''), COALESCE(html_report, '')
		FROM report_runs WHERE id = $1`, id).
		Scan(&run.Date, &run.CreatedAt, &run.RecordCount, &run.Text, &run.HTML)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if run.Insights, err = s.insights(ctx, id); err != nil {
		return nil, err
	}
	for i := range run.Insights {
		run.Insights[i].Record.Timestamp = run.Date.Format(time.DateOnly)
	}
	if run.Deliveries, err = s.deliveries(ctx, id); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Storage) insights(ctx context.Context, runID string) ([]Insight, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, COALESCE(category, ''), query, key_findings, COALESCE(summary, ''),
			COALESCE(impact, ''), COALESCE(actionable_insight, ''), sources, is_fallback
		FROM insights WHERE run_id = $1 ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	defer rows.Close()

	var out []Insight
	for rows.Next() {
		var in Insight
		var findings, sources []byte
		err := rows.Scan(&in.Position, &in.Category, &in.Record.Query, &findings, &in.Record.Summary,
			&in.Record.Impact, &in.Record.ActionableInsight, &sources, &in.Record.IsFallback)
		if err != nil {
			return nil, err
		}
		if len(findings) > 0 {
			if err := json.Unmarshal(findings, &in.Record.KeyFindings); err != nil {
				return nil, fmt.Errorf("failed to decode key findings: %w", err)
			}
		}
		if len(sources) > 0 {
			if err := json.Unmarshal(sources, &in.Record.Sources); err != nil {
				return nil, fmt.Errorf("failed to decode sources: %w", err)
			}
		}
		in.Record.Normalize()
		out = append(out, in)
	}
	return out, rows.Err()
}

func (s *Storage) deliveries(ctx context.Context, runID string) ([]Delivery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel, endpoint, ok, COALESCE(error, '')
		FROM deliveries WHERE run_id = $1 ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(&d.Channel, &d.Endpoint, &d.OK, &d.Error); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// encodeList 逐项清洗后编码为 JSON 数组，JSONB 不接受 \u0000
func encodeList(items []string) ([]byte, error) {
	clean := make([]string, len(items))
	for i, item := range items {
		clean[i] = sanitize(item)
	}
	return json.Marshal(clean)
}

// sanitize 移除无效的 UTF-8 字符和 NULL 字节，PostgreSQL 文本字段不支持 NULL 字节
func sanitize(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return strings.ReplaceAll(s, "\x00", "")
}
