package usecase

import (
	"context"
	"sync/atomic"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/engine"
	"github.com/iWorld-y/ad_radar/app/display/internal/domain"
	"github.com/iWorld-y/ad_radar/app/display/internal/repo"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Runner 执行一次流水线
type Runner interface {
	Run(ctx context.Context, opts engine.RunOptions) (*engine.RunResult, error)
}

// RunUseCase 运行归档与触发的业务逻辑
type RunUseCase struct {
	repo    repo.RunRepo
	runner  Runner
	running atomic.Bool
	log     *log.Helper
}

// NewRunUseCase 创建运行业务逻辑实例，runner 为 nil 时不支持触发
func NewRunUseCase(repo repo.RunRepo, runner Runner, logger log.Logger) *RunUseCase {
	return &RunUseCase{repo: repo, runner: runner, log: log.NewHelper(logger)}
}

// List 分页列出运行摘要
func (uc *RunUseCase) List(ctx context.Context, page, pageSize int) ([]*domain.RunSummary, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return uc.repo.ListRuns(ctx, page, pageSize)
}

// Get 根据ID获取运行详情
func (uc *RunUseCase) Get(ctx context.Context, id string) (*domain.Run, error) {
	return uc.repo.GetRun(ctx, id)
}

// Trigger 在后台启动一次运行；已有运行进行中或未配置引擎时返回 false
func (uc *RunUseCase) Trigger(ctx context.Context, topics []string) bool {
	if uc.runner == nil {
		return false
	}
	if !uc.running.CompareAndSwap(false, true) {
		return false
	}

	// 不随请求取消
	bg := context.WithoutCancel(ctx)
	go func() {
		defer uc.running.Store(false)
		res, err := uc.runner.Run(bg, engine.RunOptions{
			Topics: topics,
			ProgressCallback: func(status string, progress int) {
				uc.log.Debugf("run progress: %s (%d%%)", status, progress)
			},
		})
		if err != nil {
			uc.log.Errorf("run failed: %v", err)
			return
		}
		uc.log.Infof("run %s finished: %d records, %s", res.RunID, len(res.Records), res.Delivery)
	}()
	return true
}

// Running 是否有运行进行中
func (uc *RunUseCase) Running() bool {
	return uc.running.Load()
}
