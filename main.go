package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	_ "soda-datahub-connector/docs"

	daprd "github.com/dapr/go-sdk/service/http"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cast"
	httpSwagger "github.com/swaggo/http-swagger"

	"soda-datahub-connector/api"
	"soda-datahub-connector/client"
	"soda-datahub-connector/logger"
	"soda-datahub-connector/service"
	"soda-datahub-connector/service/history"
	"soda-datahub-connector/service/models"
	"soda-datahub-connector/service/soda"
)

var (
	PORT         = 80
	BASE_CONTEXT = ""
)

func init() {
	if val := os.Getenv("LISTEN_PORT"); val != "" {
		PORT, _ = strconv.Atoi(val)
	}

	if val := os.Getenv("BASE_CONTEXT"); val != "" {
		BASE_CONTEXT = val
	}
}

// @title Soda DataHub连接器 API
// @version 1.0
// @description 接收Soda扫描结果并转换为DataHub断言的连接器服务
// @BasePath /
func main() {
	serverURL := flag.String("server-url", "", "DataHub GMS服务地址 (例如 http://localhost:8080)")
	token := flag.String("token", "", "DataHub认证Token")
	scanResultPath := flag.String("scan-result", "", "Soda扫描结果JSON文件路径")
	env := flag.String("env", "PROD", "DataHub环境标签")
	platformAlias := flag.String("platform-alias", "", "平台别名，覆盖数据源名映射")
	platformInstanceMapPath := flag.String("platform-instance-map", "", "数据源到平台实例的JSON映射文件")
	convertURNsToLowercase := flag.Bool("convert-urns-to-lowercase", false, "URN中的数据集名转为小写")
	timeoutSec := flag.Float64("timeout-sec", 0, "请求超时时间（秒）")
	verbose := flag.Bool("verbose", false, "输出调试日志")
	serve := flag.Bool("serve", false, "以webhook服务模式启动")
	watchDir := flag.String("watch-dir", "", "服务模式下监听的扫描结果目录")
	watchSchedule := flag.String("watch-schedule", "", "目录监听的cron表达式，默认每分钟一次")
	flag.Parse()

	logger.InitLogger(*verbose)

	restConfig := client.DataHubEmitterConfig{
		ServerURL:        *serverURL,
		Token:            *token,
		Timeout:          time.Duration(*timeoutSec * float64(time.Second)),
		RetryStatusCodes: parseRetryStatusCodes(os.Getenv("RETRY_STATUS_CODES")),
		RetryMaxTimes:    cast.ToInt(os.Getenv("RETRY_MAX_TIMES")),
	}

	handlerConfig := soda.HandlerConfig{
		Env:                    *env,
		PlatformAlias:          *platformAlias,
		ConvertURNsToLowercase: *convertURNsToLowercase,
		ErrorPolicy:            soda.ErrorPolicyGraceful,
	}

	if *platformInstanceMapPath != "" {
		instanceMap, err := soda.LoadPlatformInstanceMap(*platformInstanceMapPath)
		if err != nil {
			slog.Error("加载平台实例映射失败", "error", err)
			os.Exit(1)
		}
		handlerConfig.PlatformInstanceMap = instanceMap
	}

	if *serve {
		runServer(restConfig, handlerConfig, *watchDir, *watchSchedule)
		return
	}

	runCLI(restConfig, handlerConfig, *serverURL, *scanResultPath)
}

// runCLI 命令行模式：处理单个扫描结果文件后退出
func runCLI(restConfig client.DataHubEmitterConfig, handlerConfig soda.HandlerConfig, serverURL, scanResultPath string) {
	if serverURL == "" && os.Getenv("KAFKA_BOOTSTRAP") == "" {
		fmt.Fprintln(os.Stderr, "缺少必需参数 --server-url")
		flag.Usage()
		os.Exit(1)
	}
	if scanResultPath == "" {
		fmt.Fprintln(os.Stderr, "缺少必需参数 --scan-result")
		flag.Usage()
		os.Exit(1)
	}

	scanResult, err := soda.LoadScanResultFile(scanResultPath)
	if err != nil {
		slog.Error("加载扫描结果失败", "file", scanResultPath, "error", err)
		os.Exit(1)
	}

	emitter := service.NewEmitterFromEnv(restConfig)
	handler := soda.NewHandler(handlerConfig, emitter)

	slog.Info("处理扫描结果文件", "file", scanResultPath)
	result, err := handler.ProcessScanResult(context.Background(), scanResult, time.Time{})

	// Kafka发射器需要关闭写入器，确保退出前缓冲消息全部落盘
	if closer, ok := emitter.(interface{ Close() error }); ok {
		if closeErr := closer.Close(); closeErr != nil {
			slog.Warn("关闭发射器失败", "error", closeErr)
		}
	}

	if err != nil {
		slog.Error("扫描处理失败", "error", err)
		os.Exit(1)
	}

	recordCLIHistory(scanResult, result, scanResultPath)

	if result.Status != models.ProcessStatusSuccess {
		slog.Error("扫描处理失败", "error", result.Error)
		os.Exit(1)
	}

	slog.Info("扫描处理成功",
		"scan_id", result.ScanID,
		"assertions_sent", result.AssertionsSent)
	os.Exit(0)
}

// recordCLIHistory CLI模式下仅在配置了HISTORY_DSN时记录历史
func recordCLIHistory(scanResult *models.ScanResult, result *models.ProcessResult, sourceFile string) {
	dsn := os.Getenv("HISTORY_DSN")
	if dsn == "" {
		return
	}

	historyService, err := history.Open(dsn)
	if err != nil {
		slog.Warn("打开扫描历史存储失败", "error", err)
		return
	}

	record := &models.ScanRecord{
		ScanID:         result.ScanID,
		DataSourceName: scanResult.DataSourceName,
		SourceFile:     sourceFile,
		Status:         result.Status,
		AssertionsSent: result.AssertionsSent,
		Error:          result.Error,
	}
	if err := historyService.RecordScan(record); err != nil {
		slog.Warn("写入扫描历史失败", "error", err)
	}
}

// runServer webhook服务模式：挂载路由并通过dapr服务启动
func runServer(restConfig client.DataHubEmitterConfig, handlerConfig soda.HandlerConfig, watchDir, watchSchedule string) {
	initConfig := service.InitConfig{
		Handler:       handlerConfig,
		Emitter:       service.NewEmitterFromEnv(restConfig),
		WatchDir:      watchDir,
		WatchSchedule: watchSchedule,
	}
	if err := service.Init(initConfig); err != nil {
		log.Fatalf("服务初始化失败: %v", err)
	}

	mux := chi.NewRouter()

	// 如果有BASE_CONTEXT，则在该路径下挂载所有路由
	if BASE_CONTEXT != "" {
		mux.Route(BASE_CONTEXT, func(r chi.Router) {
			subMux := r.(*chi.Mux)
			api.InitRoute(subMux)
			r.Handle("/metrics", promhttp.Handler())
			r.Handle("/swagger*", httpSwagger.WrapHandler)
		})
	} else {
		api.InitRoute(mux)
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/swagger*", httpSwagger.WrapHandler)
	}

	s := daprd.NewServiceWithMux(":"+strconv.Itoa(PORT), mux)
	if err := s.Start(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("error: %v", err)
	}
}

// parseRetryStatusCodes 解析逗号分隔的重试状态码列表
func parseRetryStatusCodes(value string) []int {
	if value == "" {
		return nil
	}

	var codes []int
	for _, part := range strings.Split(value, ",") {
		if code := cast.ToInt(strings.TrimSpace(part)); code > 0 {
			codes = append(codes, code)
		}
	}
	return codes
}
