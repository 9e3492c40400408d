/*
 * @module service/watcher/scan_watcher
 * @description 扫描结果目录监听器，按cron调度扫描目录并处理新增的扫描结果文件
 * @architecture 分层架构 - 调度层
 * @documentReference ai_docs/scan_watcher.md
 * @stateFlow 定时触发 -> 枚举*.json文件 -> 历史去重 -> 处理 -> 记录结果
 * @rules 同一文件只成功处理一次，处理失败的文件下次调度重试
 * @dependencies github.com/robfig/cron/v3
 * @refs service/soda/handler.go, service/history/history_service.go
 */

package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"soda-datahub-connector/service/history"
	"soda-datahub-connector/service/models"
	"soda-datahub-connector/service/soda"
)

// ScanWatcher 扫描结果目录监听器
type ScanWatcher struct {
	directory string
	schedule  string
	handler   *soda.Handler
	history   *history.Service
	cron      *cron.Cron
}

// NewScanWatcher 创建目录监听器
// schedule为cron表达式，空值默认每分钟扫描一次
func NewScanWatcher(directory, schedule string, handler *soda.Handler, historyService *history.Service) *ScanWatcher {
	if schedule == "" {
		schedule = "@every 1m"
	}
	return &ScanWatcher{
		directory: directory,
		schedule:  schedule,
		handler:   handler,
		history:   historyService,
		cron:      cron.New(),
	}
}

// Start 启动定时监听
func (w *ScanWatcher) Start() error {
	_, err := w.cron.AddFunc(w.schedule, func() {
		w.ScanDirectory(context.Background())
	})
	if err != nil {
		return err
	}

	w.cron.Start()
	slog.Info("扫描结果目录监听已启动", "directory", w.directory, "schedule", w.schedule)
	return nil
}

// Stop 停止监听
func (w *ScanWatcher) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	slog.Info("扫描结果目录监听已停止")
}

// ScanDirectory 扫描目录并处理所有未处理的扫描结果文件
// 返回本轮处理的文件数
func (w *ScanWatcher) ScanDirectory(ctx context.Context) int {
	pattern := filepath.Join(w.directory, "*.json")
	files, err := filepath.Glob(pattern)
	if err != nil {
		slog.Error("枚举扫描结果目录失败", "directory", w.directory, "error", err)
		return 0
	}

	processed := 0
	for _, file := range files {
		done, err := w.history.HasProcessedFile(file)
		if err != nil {
			slog.Error("查询文件处理状态失败", "file", file, "error", err)
			continue
		}
		if done {
			continue
		}

		if w.processFile(ctx, file) {
			processed++
		}
	}

	if processed > 0 {
		slog.Info("目录扫描完成", "directory", w.directory, "processed", processed)
	}
	return processed
}

// processFile 处理单个扫描结果文件并记录历史
func (w *ScanWatcher) processFile(ctx context.Context, file string) bool {
	slog.Info("处理扫描结果文件", "file", file)

	scanResult, err := soda.LoadScanResultFile(file)
	if err != nil {
		slog.Error("加载扫描结果文件失败", "file", file, "error", err)
		w.recordFailure(file, "", "", err.Error())
		return false
	}

	result, err := w.handler.ProcessScanResult(ctx, scanResult, time.Time{})
	if err != nil {
		w.recordFailure(file, scanResult.ScanID, scanResult.DataSourceName, err.Error())
		return false
	}
	if result.Status != models.ProcessStatusSuccess {
		w.recordFailure(file, scanResult.ScanID, scanResult.DataSourceName, result.Error)
		return false
	}

	record := &models.ScanRecord{
		ScanID:         result.ScanID,
		DataSourceName: scanResult.DataSourceName,
		SourceFile:     file,
		Status:         models.ProcessStatusSuccess,
		AssertionsSent: result.AssertionsSent,
	}
	if err := w.history.RecordScan(record); err != nil {
		slog.Error("写入扫描记录失败", "file", file, "error", err)
	}
	return true
}

// recordFailure 记录处理失败的文件
func (w *ScanWatcher) recordFailure(file, scanID, dataSource, errMsg string) {
	record := &models.ScanRecord{
		ScanID:         scanID,
		DataSourceName: dataSource,
		SourceFile:     file,
		Status:         models.ProcessStatusError,
		Error:          errMsg,
	}
	if err := w.history.RecordScan(record); err != nil {
		slog.Error("写入扫描失败记录失败", "file", file, "error", err)
	}
}
