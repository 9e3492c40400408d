/*
 * @module service/init
 * @description 服务初始化模块，负责发射器、历史存储、分布式锁和监听器的装配
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/connector_architecture.md
 * @stateFlow 服务模式启动时执行初始化流程，CLI模式按需直接构造处理器
 * @rules Redis锁和目录监听为可选能力，未配置时跳过初始化
 * @dependencies service/soda, service/history, service/distributed_lock
 * @refs main.go, api/routes.go
 */

package service

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"soda-datahub-connector/client"
	"soda-datahub-connector/service/distributed_lock"
	"soda-datahub-connector/service/history"
	"soda-datahub-connector/service/soda"
	"soda-datahub-connector/service/watcher"
)

var (
	GlobalHandler        *soda.Handler
	GlobalHistoryService *history.Service
	GlobalLockExecutor   *distributed_lock.LockExecutor
	GlobalScanWatcher    *watcher.ScanWatcher
)

// InitConfig 服务初始化配置
type InitConfig struct {
	Handler       soda.HandlerConfig
	Emitter       soda.Emitter
	HistoryDSN    string // 历史存储DSN，空值使用默认sqlite文件
	WatchDir      string // 扫描结果监听目录，空值禁用监听
	WatchSchedule string // 监听cron表达式
}

// Init 初始化服务模式所需的全局服务
func Init(config InitConfig) error {
	GlobalHandler = soda.NewHandler(config.Handler, config.Emitter)

	dsn := config.HistoryDSN
	if dsn == "" {
		dsn = getEnvWithDefault("HISTORY_DSN", "soda_connector.db")
	}
	historyService, err := history.Open(dsn)
	if err != nil {
		return fmt.Errorf("初始化扫描历史存储失败: %v", err)
	}
	GlobalHistoryService = historyService

	// Redis锁为可选能力，用于多实例webhook去重
	if os.Getenv("REDIS_HOST") != "" {
		redisLock, err := distributed_lock.NewRedisLock()
		if err != nil {
			slog.Warn("Redis分布式锁初始化失败，扫描去重降级为单实例", "error", err)
		} else {
			GlobalLockExecutor = distributed_lock.NewLockExecutor(redisLock)
		}
	}

	if config.WatchDir != "" {
		GlobalScanWatcher = watcher.NewScanWatcher(config.WatchDir, config.WatchSchedule, GlobalHandler, GlobalHistoryService)
		if err := GlobalScanWatcher.Start(); err != nil {
			return fmt.Errorf("启动扫描目录监听失败: %v", err)
		}
	}

	slog.Info("服务初始化完成",
		"history_dsn", dsn,
		"watch_dir", config.WatchDir,
		"redis_lock", GlobalLockExecutor != nil)
	return nil
}

// NewEmitterFromEnv 按环境变量选择发射器实现
// KAFKA_BOOTSTRAP设置时走Kafka摄取主题，否则使用REST发射器
func NewEmitterFromEnv(restConfig client.DataHubEmitterConfig) soda.Emitter {
	if bootstrap := os.Getenv("KAFKA_BOOTSTRAP"); bootstrap != "" {
		return client.NewKafkaEmitter(client.KafkaEmitterConfig{
			Brokers:      strings.Split(bootstrap, ","),
			Topic:        os.Getenv("KAFKA_MCP_TOPIC"),
			BatchTimeout: 100 * time.Millisecond,
		})
	}
	return client.NewDataHubEmitter(restConfig)
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
