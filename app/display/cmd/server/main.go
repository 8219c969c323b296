package main

import (
	"flag"
	"os"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/joho/godotenv"

	"github.com/iWorld-y/ad_radar/app/display/internal/conf"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name 服务名，同时用于 kratos 注册与日志
	Name = "ad-radar-display"
	// Version 服务版本号
	Version string

	flagconf string

	id, _ = os.Hostname()
)

const defaultConf = "app/display/configs/config.yaml"

func init() {
	def := os.Getenv("AD_RADAR_DISPLAY_CONF")
	if def == "" {
		def = defaultConf
	}
	flag.StringVar(&flagconf, "conf", def, "config path (env AD_RADAR_DISPLAY_CONF), eg: -conf config.yaml")
}

// loadBootstrap 读取 kratos 配置文件，凭据可由 .env 中的环境变量补齐
func loadBootstrap(path string) (*conf.Bootstrap, func(), error) {
	_ = godotenv.Load()

	c := config.New(config.WithSource(file.NewSource(path)))
	if err := c.Load(); err != nil {
		c.Close()
		return nil, nil, err
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		c.Close()
		return nil, nil, err
	}
	return &bc, func() { c.Close() }, nil
}

// newLogger 按 radar.log.level 过滤 kratos 日志
func newLogger(bc *conf.Bootstrap) log.Logger {
	level := log.LevelInfo
	if bc.Radar != nil && bc.Radar.Log != nil && bc.Radar.Log.Level != "" {
		level = log.ParseLevel(bc.Radar.Log.Level)
	}

	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)
	return log.NewFilter(logger, log.FilterLevel(level))
}

func main() {
	flag.Parse()

	bc, closeConf, err := loadBootstrap(flagconf)
	if err != nil {
		panic(err)
	}
	defer closeConf()

	logger := newLogger(bc)
	helper := log.NewHelper(logger)
	if bc.Radar == nil {
		helper.Warn("radar config missing, POST /api/runs is disabled")
	}

	app, cleanup, err := initApp(bc.Server, bc.Data, bc.Radar, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	helper.Infof("%s starting with config %s", Name, flagconf)
	if err := app.Run(); err != nil {
		panic(err)
	}
}
