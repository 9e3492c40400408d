/*
 * @module api/controllers/scan_controller
 * @description 扫描结果控制器，接收Soda扫描结果webhook并触发断言发送
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/connector_architecture.md
 * @stateFlow 接收扫描结果 -> 按scan_id加锁去重 -> 处理 -> 记录历史 -> 返回结果
 * @rules 同一scan_id并发投递只处理一次；处理结果无论成败都写入历史
 * @dependencies github.com/go-chi/render, service/soda, service/history
 * @refs api/routes.go
 */

package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"soda-datahub-connector/service"
	"soda-datahub-connector/service/models"
)

// 扫描处理锁的过期时间与续期间隔，处理超过TTL的大扫描靠续期保持持有
const (
	scanLockTTL     = 5 * time.Minute
	scanLockRefresh = scanLockTTL / 3
)

// ScanController 扫描结果控制器
type ScanController struct{}

// NewScanController 创建扫描结果控制器实例
func NewScanController() *ScanController {
	return &ScanController{}
}

// IngestScanResult 接收并处理Soda扫描结果
// @Summary 接收Soda扫描结果
// @Description 接收Soda Cloud webhook或soda scan导出的扫描结果JSON，转换为DataHub断言并发送
// @Tags 扫描
// @Accept json
// @Produce json
// @Param request body models.ScanResult true "Soda扫描结果"
// @Success 200 {object} APIResponse{data=models.ProcessResult}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /scan-results [post]
func (c *ScanController) IngestScanResult(w http.ResponseWriter, r *http.Request) {
	var scanResult models.ScanResult
	if err := render.DecodeJSON(r.Body, &scanResult); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "扫描结果格式错误", err))
		return
	}

	var result *models.ProcessResult
	process := func() error {
		var err error
		result, err = service.GlobalHandler.ProcessScanResult(r.Context(), &scanResult, time.Time{})
		return err
	}

	var err error
	if service.GlobalLockExecutor != nil && scanResult.ScanID != "" {
		err = service.GlobalLockExecutor.ExecuteWithLock(r.Context(), scanResult.ScanID, scanLockTTL, scanLockRefresh, process)
	} else {
		err = process()
	}

	if err != nil {
		c.recordHistory(&scanResult, &models.ProcessResult{
			Status: models.ProcessStatusError,
			Error:  err.Error(),
		})
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse(http.StatusInternalServerError, "扫描处理失败", err))
		return
	}

	if result == nil {
		// 锁被其他实例持有，本次投递跳过
		render.JSON(w, r, SuccessResponse("扫描正在被其他实例处理", nil))
		return
	}

	c.recordHistory(&scanResult, result)

	if result.Status != models.ProcessStatusSuccess {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse(http.StatusInternalServerError, "扫描处理失败", errors.New(result.Error)))
		return
	}

	render.JSON(w, r, SuccessResponse("扫描处理成功", result))
}

// recordHistory 写入扫描处理历史
func (c *ScanController) recordHistory(scanResult *models.ScanResult, result *models.ProcessResult) {
	if service.GlobalHistoryService == nil {
		return
	}

	record := &models.ScanRecord{
		ScanID:         result.ScanID,
		DataSourceName: scanResult.DataSourceName,
		Status:         result.Status,
		AssertionsSent: result.AssertionsSent,
		Error:          result.Error,
	}
	if record.ScanID == "" {
		record.ScanID = scanResult.ScanID
	}
	if err := service.GlobalHistoryService.RecordScan(record); err != nil {
		slog.Error("写入扫描历史失败", "scan_id", record.ScanID, "error", err)
	}
}

// GetScanRecords 查询扫描处理历史
// @Summary 查询扫描处理历史
// @Description 按处理时间倒序查询扫描处理记录
// @Tags 扫描
// @Produce json
// @Param limit query int false "返回条数，默认50"
// @Success 200 {object} APIResponse{data=[]models.ScanRecord}
// @Failure 500 {object} APIResponse
// @Router /scans [get]
func (c *ScanController) GetScanRecords(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if val := r.URL.Query().Get("limit"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			limit = parsed
		}
	}

	records, err := service.GlobalHistoryService.ListRecords(limit)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse(http.StatusInternalServerError, "查询扫描历史失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("查询成功", records))
}

// GetScanStatistics 查询扫描处理统计
// @Summary 查询扫描处理统计
// @Description 统计扫描处理总数、成功失败数和断言发送总数
// @Tags 扫描
// @Produce json
// @Success 200 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /scans/statistics [get]
func (c *ScanController) GetScanStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := service.GlobalHistoryService.Statistics()
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse(http.StatusInternalServerError, "查询扫描统计失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("查询成功", stats))
}

// TriggerDirectoryScan 手动触发一次目录扫描
// @Summary 手动触发目录扫描
// @Description 立即扫描监听目录并处理未处理的扫描结果文件
// @Tags 扫描
// @Produce json
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /scans/trigger-directory-scan [post]
func (c *ScanController) TriggerDirectoryScan(w http.ResponseWriter, r *http.Request) {
	if service.GlobalScanWatcher == nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "未配置扫描结果监听目录", nil))
		return
	}

	processed := service.GlobalScanWatcher.ScanDirectory(context.Background())
	render.JSON(w, r, SuccessResponse("目录扫描完成", map[string]interface{}{
		"processed_files": processed,
	}))
}
