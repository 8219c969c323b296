package service

import (
	nethttp "net/http"
	"strconv"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/ad_radar/app/display/internal/domain"
	"github.com/iWorld-y/ad_radar/app/display/internal/usecase"
)

type DisplayService struct {
	ucRun *usecase.RunUseCase
	log   *log.Helper
}

func NewDisplayService(ucRun *usecase.RunUseCase, logger log.Logger) *DisplayService {
	return &DisplayService{
		ucRun: ucRun,
		log:   log.NewHelper(logger),
	}
}

// ListRunsReply GET /api/runs 的响应
type ListRunsReply struct {
	Runs  []*domain.RunSummary `json:"runs"`
	Total int                  `json:"total"`
}

// TriggerRunReq POST /api/runs 的请求体，Topics 为空时使用配置中的目录
type TriggerRunReq struct {
	Topics []string `json:"topics"`
}

// TriggerRunReply POST /api/runs 的响应
type TriggerRunReply struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}

func (s *DisplayService) ListRuns(ctx http.Context) error {
	q := ctx.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	runs, total, err := s.ucRun.List(ctx, page, pageSize)
	if err != nil {
		return err
	}
	return ctx.JSON(nethttp.StatusOK, &ListRunsReply{Runs: runs, Total: total})
}

func (s *DisplayService) GetRun(ctx http.Context) error {
	run, err := s.ucRun.Get(ctx, ctx.Vars().Get("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(nethttp.StatusOK, run)
}

// RunPage 返回归档的 HTML 报告
func (s *DisplayService) RunPage(ctx http.Context) error {
	run, err := s.ucRun.Get(ctx, ctx.Vars().Get("id"))
	if err != nil {
		return err
	}
	if run.HTML == "" {
		return errors.NotFound("REPORT_NOT_FOUND", "report html not archived")
	}
	return ctx.Blob(nethttp.StatusOK, "text/html; charset=utf-8", []byte(run.HTML))
}

func (s *DisplayService) TriggerRun(ctx http.Context) error {
	var req TriggerRunReq
	if ctx.Request().ContentLength > 0 {
		if err := ctx.Bind(&req); err != nil {
			return errors.BadRequest("INVALID_BODY", err.Error())
		}
	}

	if !s.ucRun.Trigger(ctx, req.Topics) {
		s.log.Warn("trigger rejected: engine disabled or run in progress")
		return ctx.JSON(nethttp.StatusConflict, &TriggerRunReply{Accepted: false, Message: "engine disabled or run in progress"})
	}
	return ctx.JSON(nethttp.StatusAccepted, &TriggerRunReply{Accepted: true, Message: "run started"})
}
