package repo

import (
	"context"

	"github.com/iWorld-y/ad_radar/app/display/internal/domain"
)

// RunRepo 运行归档仓库接口
type RunRepo interface {
	// ListRuns 分页获取运行摘要列表
	ListRuns(ctx context.Context, page, pageSize int) ([]*domain.RunSummary, int, error)
	// GetRun 根据ID获取运行详情
	GetRun(ctx context.Context, id string) (*domain.Run, error)
}
