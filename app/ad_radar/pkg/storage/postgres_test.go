package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/model"
)

func newMock(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

var runDate = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

const runID = "5f0c7a4e-8d5b-4a8e-9b43-3c1f8f2d6b11"

func TestSaveRun(t *testing.T) {
	s, mock := newMock(t)

	run := &Run{
		ID:          runID,
		Date:        runDate,
		RecordCount: 1,
		Text:        "본문\x00",
		HTML:        "<p>본문</p>",
		Insights: []Insight{{
			Position: 0,
			Category: "trend",
			Record: model.InsightRecord{
				Query:       "retail media 성장",
				KeyFindings: []string{"a"},
				Summary:     "s",
				Sources:     []string{},
			},
		}},
		Deliveries: []Delivery{{Channel: "slack", Endpoint: "#1 hooks.slack.com", OK: false, Error: "webhook status 404"}},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO report_runs").
		WithArgs(run.ID, "2025-07-01", 1, "본문", "<p>본문</p>").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO insights").
		WithArgs(run.ID, 0, "trend", "retail media 성장", `["a"]`, "s", "", "", `[]`, false).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO deliveries").
		WithArgs(run.ID, "slack", "#1 hooks.slack.com", false, "webhook status 404").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, s.SaveRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRun_RollbackOnError(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO report_runs").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := s.SaveRun(context.Background(), &Run{ID: "x", Date: runDate})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRuns(t *testing.T) {
	s, mock := newMock(t)
	created := runDate.Add(9 * time.Hour)

	mock.ExpectQuery("FROM report_runs r").
		WithArgs(20, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "report_date", "created_at", "record_count", "ok", "total"}).
			AddRow("run-1", runDate, created, 12, 2, 3))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM report_runs`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	runs, total, err := s.ListRuns(context.Background(), 2, 20)
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, 12, runs[0].RecordCount)
	assert.Equal(t, 2, runs[0].DeliveredOK)
	assert.Equal(t, 3, runs[0].DeliveriesTotal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRun(t *testing.T) {
	s, mock := newMock(t)
	created := runDate.Add(9 * time.Hour)

	mock.ExpectQuery("FROM report_runs WHERE id").
		WithArgs(runID).
		WillReturnRows(sqlmock.NewRows([]string{"report_date", "created_at", "record_count", "text", "html"}).
			AddRow(runDate, created, 1, "text", "<html>"))
	mock.ExpectQuery("FROM insights").
		WithArgs(runID).
		WillReturnRows(sqlmock.NewRows([]string{"position", "category", "query", "key_findings", "summary", "impact", "actionable_insight", "sources", "is_fallback"}).
			AddRow(0, "", "쿠키리스 광고 대응", []byte(`["x"]`), "s", "상세 분석 필요", "추가 조사 권장", nil, true))
	mock.ExpectQuery("FROM deliveries").
		WithArgs(runID).
		WillReturnRows(sqlmock.NewRows([]string{"channel", "endpoint", "ok", "error"}).
			AddRow("email", "to@example.com", true, ""))

	run, err := s.GetRun(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, "<html>", run.HTML)
	require.Len(t, run.Insights, 1)
	rec := run.Insights[0].Record
	assert.Equal(t, []string{"x"}, rec.KeyFindings)
	assert.NotNil(t, rec.Sources)
	assert.True(t, rec.IsFallback)
	assert.Equal(t, "2025-07-01", rec.Timestamp)
	require.Len(t, run.Deliveries, 1)
	assert.True(t, run.Deliveries[0].OK)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRun_NotFound(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery("FROM report_runs WHERE id").
		WithArgs("0b4f3a52-6f0e-4d8c-a2f1-7e9d5c3b8a40").
		WillReturnRows(sqlmock.NewRows([]string{"report_date", "created_at", "record_count", "text", "html"}))

	_, err := s.GetRun(context.Background(), "0b4f3a52-6f0e-4d8c-a2f1-7e9d5c3b8a40")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRun_MalformedID(t *testing.T) {
	s, mock := newMock(t)

	for _, id := range []string{"abc", "run-1", ""} {
		_, err := s.GetRun(context.Background(), id)
		assert.ErrorIs(t, err, ErrNotFound, id)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRun_SanitizesLists(t *testing.T) {
	s, mock := newMock(t)

	run := &Run{
		ID:          runID,
		Date:        runDate,
		RecordCount: 1,
		Insights: []Insight{{
			Record: model.InsightRecord{
				Query:       "CTV 광고",
				KeyFindings: []string{"a\x00b", "c"},
				Sources:     []string{"https://example.com/\x00x"},
			},
		}},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO report_runs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO insights").
		WithArgs(runID, 0, "", "CTV 광고", `["ab","c"]`, "", "", "", `["https://example.com/x"]`, false).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, s.SaveRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "ab", sanitize("a\x00b"))
	assert.Equal(t, "ab", sanitize("a\xffb"))
	assert.Equal(t, "한글", sanitize("한글"))
}
