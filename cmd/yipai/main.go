// YiPai 排班优化引擎
// 命令行入口:连接数据库,执行一次排班或应急重排,结果以 JSON 输出。

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/paiban/yipai/internal/config"
	"github.com/paiban/yipai/internal/database"
	"github.com/paiban/yipai/internal/metrics"
	"github.com/paiban/yipai/internal/service"
	"github.com/paiban/yipai/pkg/logger"
	"github.com/paiban/yipai/pkg/model"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		departmentID = flag.Int("department", 0, "科室 ID")
		startDate    = flag.String("start", "", "开始日期(波斯历 YYYY/MM/DD)")
		endDate      = flag.String("end", "", "结束日期(波斯历 YYYY/MM/DD)")
		algorithm    = flag.String("algorithm", string(model.AlgorithmHybrid), "求解算法: simulated_annealing/cpsat/hybrid")
		validateOnly = flag.Bool("validate", false, "只做排班前置校验")
		save         = flag.Bool("save", false, "求解成功后保存结果")
		reschedule   = flag.Bool("reschedule", false, "应急重排模式")
		windowDays   = flag.Int("window", 7, "应急重排的窗口天数")
		overlapDays  = flag.Int("overlap", 1, "应急重排的窗口重叠天数")
		impacted     = flag.String("impacted", "", "受影响人员 ID,逗号分隔")
		metricsAddr  = flag.String("metrics-addr", "", "监控端点地址,如 :9090;为空则不启动")
		showVersion  = flag.Bool("version", false, "打印版本信息")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("YiPai 排班引擎 v%s\nBuild: %s (%s)\n", Version, BuildTime, GitCommit)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
		Output: "stderr",
	})

	if *departmentID <= 0 || *startDate == "" || *endDate == "" {
		fmt.Fprintln(os.Stderr, "必须指定 -department、-start 与 -end")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info().Msg("收到终止信号,正在取消求解...")
		cancel()
	}()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Error().Err(err).Msg("数据库连接失败")
		os.Exit(1)
	}
	defer db.Close()

	var metricsServer *http.Server
	if *metricsAddr != "" && cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		metricsServer = &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			logger.Info().Str("addr", *metricsAddr).Msg("监控端点启动")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("监控端点启动失败")
			}
		}()
	}

	svc := service.New(db, cfg.Scheduler, nil, nil)

	var exitCode int
	switch {
	case *validateOnly:
		exitCode = runValidate(ctx, svc, *departmentID, *startDate, *endDate)
	case *reschedule:
		exitCode = runReschedule(ctx, svc, service.RescheduleRequest{
			DepartmentID:    *departmentID,
			StartDate:       *startDate,
			EndDate:         *endDate,
			WindowSizeDays:  *windowDays,
			OverlapDays:     *overlapDays,
			ImpactedUserIDs: parseIDs(*impacted),
			Algorithm:       model.Algorithm(*algorithm),
		})
	default:
		exitCode = runOptimize(ctx, svc, service.Request{
			DepartmentID: *departmentID,
			StartDate:    *startDate,
			EndDate:      *endDate,
			Algorithm:    model.Algorithm(*algorithm),
		}, *save)
	}

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	os.Exit(exitCode)
}

func runValidate(ctx context.Context, svc *service.Service, departmentID int, start, end string) int {
	issues, err := svc.ValidateConstraints(ctx, service.Request{
		DepartmentID: departmentID,
		StartDate:    start,
		EndDate:      end,
	})
	if err != nil {
		logger.Error().Err(err).Msg("前置校验失败")
		return 1
	}
	printJSON(map[string]interface{}{"valid": len(issues) == 0, "issues": issues})
	if len(issues) > 0 {
		return 3
	}
	return 0
}

func runOptimize(ctx context.Context, svc *service.Service, req service.Request, save bool) int {
	result, err := svc.Optimize(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("排班求解失败")
		return 1
	}
	if save {
		if err := svc.SaveSchedule(ctx, result); err != nil {
			logger.Error().Err(err).Msg("排班结果保存失败")
			return 1
		}
		logger.Info().Str("department", strconv.Itoa(result.DepartmentID)).Msg("排班结果已保存")
	}
	printJSON(result)
	return 0
}

func runReschedule(ctx context.Context, svc *service.Service, req service.RescheduleRequest) int {
	result, err := svc.Reschedule(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("应急重排失败")
		return 1
	}
	printJSON(result)
	return 0
}

func parseIDs(s string) []int {
	if s == "" {
		return nil
	}
	var ids []int
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Error().Err(err).Msg("结果输出失败")
	}
}
