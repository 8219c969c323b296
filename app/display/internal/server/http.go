package server

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iWorld-y/ad_radar/app/display/internal/conf"
	"github.com/iWorld-y/ad_radar/app/display/internal/service"
)

func NewHTTPServer(c *conf.Server, s *service.DisplayService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c != nil && c.Http != nil {
		if c.Http.Addr != "" {
			opts = append(opts, http.Address(c.Http.Addr))
		}
		if c.Http.Timeout != "" {
			if d, err := time.ParseDuration(c.Http.Timeout); err == nil {
				opts = append(opts, http.Timeout(d))
			}
		}
	}

	srv := http.NewServer(opts...)

	r := srv.Route("/")
	r.GET("/api/runs", s.ListRuns)
	r.POST("/api/runs", s.TriggerRun)
	r.GET("/api/runs/{id}", s.GetRun)
	r.GET("/runs/{id}", s.RunPage)

	srv.Handle("/metrics", promhttp.Handler())
	log.NewHelper(logger).Info("routes registered: /api/runs, /runs/{id}, /metrics")

	return srv
}
