package data

import (
	"context"
	"errors"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/storage"
	"github.com/iWorld-y/ad_radar/app/display/internal/domain"
	"github.com/iWorld-y/ad_radar/app/display/internal/repo"
)

const timeLayout = "2006-01-02 15:04:05"

type runRepo struct {
	data *Data
	log  *log.Helper
}

func NewRunRepo(data *Data, logger log.Logger) repo.RunRepo {
	return &runRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *runRepo) ListRuns(ctx context.Context, page, pageSize int) ([]*domain.RunSummary, int, error) {
	runs, total, err := r.data.store.ListRuns(ctx, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]*domain.RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, &domain.RunSummary{
			ID:              run.ID,
			Date:            run.Date.Format(time.DateOnly),
			CreatedAt:       run.CreatedAt.Format(timeLayout),
			RecordCount:     run.RecordCount,
			DeliveredOK:     run.DeliveredOK,
			DeliveriesTotal: run.DeliveriesTotal,
		})
	}
	return summaries, total, nil
}

func (r *runRepo) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	run, err := r.data.store.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, kerrors.NotFound("RUN_NOT_FOUND", "run not found")
		}
		return nil, err
	}
	return toDomainRun(run), nil
}

func toDomainRun(run *storage.Run) *domain.Run {
	out := &domain.Run{
		ID:          run.ID,
		Date:        run.Date.Format(time.DateOnly),
		CreatedAt:   run.CreatedAt.Format(timeLayout),
		RecordCount: run.RecordCount,
		HTML:        run.HTML,
		Insights:    make([]*domain.Insight, 0, len(run.Insights)),
		Deliveries:  make([]*domain.Delivery, 0, len(run.Deliveries)),
	}
	for _, in := range run.Insights {
		out.Insights = append(out.Insights, &domain.Insight{
			Category:          in.Category,
			Query:             in.Record.Query,
			KeyFindings:       in.Record.KeyFindings,
			Summary:           in.Record.Summary,
			Impact:            in.Record.Impact,
			ActionableInsight: in.Record.ActionableInsight,
			Sources:           in.Record.Sources,
			IsFallback:        in.Record.IsFallback,
		})
	}
	for _, d := range run.Deliveries {
		out.Deliveries = append(out.Deliveries, &domain.Delivery{
			Channel:  d.Channel,
			Endpoint: d.Endpoint,
			OK:       d.OK,
			Error:    d.Error,
		})
	}
	return out
}
