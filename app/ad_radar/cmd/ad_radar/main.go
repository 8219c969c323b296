package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/config"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/dispatch"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/engine"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/logger"
	"github.com/iWorld-y/ad_radar/app/ad_radar/pkg/storage"
)

var (
	flagConf  = flag.String("config", "configs/config.yaml", "config path, eg: -config config.yaml")
	flagOnce  = flag.Bool("once", false, "run the pipeline once and exit, ignoring schedule")
	flagCheck = flag.Bool("check", false, "send a test message to every configured endpoint and exit")
)

func main() {
	flag.Parse()

	// 1. 加载配置，.env 不存在时忽略
	_ = godotenv.Load()

	path := *flagConf
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		path = ""
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}

	// 2. 初始化日志
	if err = logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *flagCheck {
		os.Exit(check(ctx, cfg))
	}

	// 验证配置
	if err := cfg.Validate(); err != nil {
		logger.Log.Fatalf("配置错误: %v", err)
	}
	logger.Log.Info("🚀 광고 시장 인사이트 에이전트 시작...")

	// 初始化数据库连接，失败时只生成报告不归档
	var store *storage.Storage
	if cfg.DB.Host != "" {
		s, err := storage.NewStorage(cfg.DB)
		if err != nil {
			logger.Log.Errorf("无法连接数据库: %v. 将不归档运行记录。", err)
		} else {
			store = s
			defer store.Close()
			logger.Log.Info("已成功连接到数据库")
		}
	} else {
		logger.Log.Info("未配置数据库信息，跳过数据库连接")
	}

	eng, err := engine.NewEngine(ctx, cfg, store)
	if err != nil {
		logger.Log.Fatalf("引擎初始化失败: %v", err)
	}
	logEndpoints(eng.Dispatcher().Endpoints())

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr)
	}

	// ctx 只用于等待退出信号，进行中的运行总会完成
	runOnce := func() {
		if _, err := eng.Run(context.WithoutCancel(ctx), engine.RunOptions{}); err != nil {
			logger.Log.Errorf("运行失败: %v", err)
		}
	}

	if *flagOnce || cfg.Schedule == "" {
		runOnce()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Schedule, runOnce); err != nil {
		logger.Log.Fatalf("无效的 schedule %q: %v", cfg.Schedule, err)
	}
	c.Start()
	logger.Log.Infof("⏰ 定时任务已启动: %s", cfg.Schedule)

	<-ctx.Done()
	logger.Log.Info("收到退出信号，等待当前任务结束...")
	<-c.Stop().Done()
	logger.Log.Info("已退出")
}

// check 向每个端点发送测试消息，全部成功时返回 0
func check(ctx context.Context, cfg *config.Config) int {
	endpoints := dispatch.FromConfig(cfg)
	if len(endpoints) == 0 {
		logger.Log.Warn("⚠️ 수신처가 설정되지 않았습니다")
		return 1
	}

	summary := dispatch.NewManager(endpoints...).Check(ctx)
	fmt.Println("📊 테스트 결과")
	for _, ch := range []string{dispatch.ChannelSlack, dispatch.ChannelEmail} {
		ok, total := summary.Counts(ch)
		fmt.Printf("   %s: %d/%d\n", ch, ok, total)
	}

	for _, o := range summary.Outcomes {
		if !o.OK {
			return 1
		}
	}
	return 0
}

func logEndpoints(endpoints []dispatch.Endpoint) {
	counts := map[string]int{}
	for _, ep := range endpoints {
		counts[ep.Channel()]++
	}
	logger.Log.Infof("📤 슬랙 채널 %d개, 📧 이메일 %d개", counts[dispatch.ChannelSlack], counts[dispatch.ChannelEmail])
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	logger.Log.Infof("指标服务监听 %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Errorf("指标服务异常退出: %v", err)
	}
}
