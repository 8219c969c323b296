package main

import (
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/ad_radar/app/display/internal/conf"
	"github.com/iWorld-y/ad_radar/app/display/internal/data"
	"github.com/iWorld-y/ad_radar/app/display/internal/server"
	"github.com/iWorld-y/ad_radar/app/display/internal/service"
	"github.com/iWorld-y/ad_radar/app/display/internal/usecase"
)

// initApp 按 data -> usecase -> service -> server 的顺序组装 kratos 应用
func initApp(confServer *conf.Server, confData *conf.Data, confRadar *conf.Radar, logger log.Logger) (*kratos.App, func(), error) {
	dataData, cleanup, err := data.NewData(confData, logger)
	if err != nil {
		return nil, nil, err
	}

	eng, cleanup2, err := server.NewRadarEngine(confRadar, dataData.Store(), logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	runRepo := data.NewRunRepo(dataData, logger)
	var runner usecase.Runner
	if eng != nil {
		runner = eng
	}
	runUseCase := usecase.NewRunUseCase(runRepo, runner, logger)
	displayService := service.NewDisplayService(runUseCase, logger)
	httpServer := server.NewHTTPServer(confServer, displayService, logger)

	app := newApp(logger, httpServer)
	return app, func() {
		cleanup2()
		cleanup()
	}, nil
}

func newApp(logger log.Logger, hs *http.Server) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(hs),
	)
}
