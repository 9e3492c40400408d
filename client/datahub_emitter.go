/*
 * @module client/datahub_emitter
 * @description DataHub REST发射器，通过GMS ingestProposal接口提交元数据变更提案
 * @architecture 适配器模式 - 封装DataHub GMS认证和HTTP请求
 * @documentReference ai_docs/datahub_rest_api.md
 * @stateFlow MCP构建 -> HTTP提交 -> 状态码重试 -> 统计更新
 * @rules Token透传、超时和重试策略为透传配置，本层不解释重试语义
 * @dependencies net/http, encoding/json, sync, time
 * @refs service/soda/handler.go
 */

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"soda-datahub-connector/service/models"
)

// ingestProposalPath GMS的restli提案提交接口
const ingestProposalPath = "/aspects?action=ingestProposal"

// DataHubEmitterConfig DataHub REST发射器配置
type DataHubEmitterConfig struct {
	ServerURL        string            `json:"server_url"`         // GMS服务地址
	Token            string            `json:"token"`              // 认证Token
	Timeout          time.Duration     `json:"timeout"`            // HTTP超时时间
	RetryStatusCodes []int             `json:"retry_status_codes"` // 需要重试的HTTP状态码
	RetryMaxTimes    int               `json:"retry_max_times"`    // 最大重试次数
	ExtraHeaders     map[string]string `json:"extra_headers"`      // 额外请求头
}

// EmitterStats 发射器统计信息
type EmitterStats struct {
	EmitCount       int64     `json:"emit_count"`        // 提交总数
	SuccessCount    int64     `json:"success_count"`     // 成功提交数
	ErrorCount      int64     `json:"error_count"`       // 失败提交数
	RetryCount      int64     `json:"retry_count"`       // 重试次数
	LastEmitTime    time.Time `json:"last_emit_time"`    // 最后提交时间
	LastSuccessTime time.Time `json:"last_success_time"` // 最后成功时间
	mutex           sync.RWMutex
}

// DataHubEmitter DataHub REST发射器
type DataHubEmitter struct {
	config     DataHubEmitterConfig
	httpClient *http.Client
	stats      *EmitterStats
}

// NewDataHubEmitter 创建DataHub REST发射器
func NewDataHubEmitter(config DataHubEmitterConfig) *DataHubEmitter {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &DataHubEmitter{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		stats: &EmitterStats{},
	}
}

// ingestProposalRequest ingestProposal接口的请求体
type ingestProposalRequest struct {
	Proposal *models.MetadataChangeProposal `json:"proposal"`
}

// EmitMCP 提交一个元数据变更提案
// GMS的ingestProposal为幂等upsert，同一URN同一切面重复提交结果一致
func (e *DataHubEmitter) EmitMCP(ctx context.Context, mcp *models.MetadataChangeProposal) error {
	reqBody, err := json.Marshal(ingestProposalRequest{Proposal: mcp})
	if err != nil {
		return fmt.Errorf("序列化元数据提案失败: %v", err)
	}

	e.stats.mutex.Lock()
	e.stats.EmitCount++
	e.stats.LastEmitTime = time.Now()
	e.stats.mutex.Unlock()

	var lastErr error
	attempts := e.config.RetryMaxTimes + 1
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			e.stats.mutex.Lock()
			e.stats.RetryCount++
			e.stats.mutex.Unlock()

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		retryable, err := e.doEmit(ctx, reqBody)
		if err == nil {
			e.stats.mutex.Lock()
			e.stats.SuccessCount++
			e.stats.LastSuccessTime = time.Now()
			e.stats.mutex.Unlock()
			return nil
		}

		lastErr = err
		if !retryable {
			break
		}
	}

	e.stats.mutex.Lock()
	e.stats.ErrorCount++
	e.stats.mutex.Unlock()

	return lastErr
}

// doEmit 执行单次提交，返回失败是否可按配置的状态码重试
func (e *DataHubEmitter) doEmit(ctx context.Context, reqBody []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.ServerURL+ingestProposalPath, bytes.NewReader(reqBody))
	if err != nil {
		return false, fmt.Errorf("创建提案请求失败: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-RestLi-Protocol-Version", "2.0.0")
	if e.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+e.config.Token)
	}
	for key, value := range e.config.ExtraHeaders {
		req.Header.Set(key, value)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		// 网络错误按可重试处理
		return true, fmt.Errorf("提案请求失败: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return false, nil
	}

	body, _ := io.ReadAll(resp.Body)
	emitErr := fmt.Errorf("提案提交失败，状态码: %d, 响应: %s", resp.StatusCode, string(body))

	for _, code := range e.config.RetryStatusCodes {
		if resp.StatusCode == code {
			return true, emitErr
		}
	}
	return false, emitErr
}

// TestConnection 检查GMS服务可达性
func (e *DataHubEmitter) TestConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.config.ServerURL+"/config", nil)
	if err != nil {
		return fmt.Errorf("创建连接检查请求失败: %v", err)
	}
	if e.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+e.config.Token)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("DataHub连接失败: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("DataHub连接检查失败，状态码: %d", resp.StatusCode)
	}
	return nil
}

// GetStatistics 获取发射器统计信息
func (e *DataHubEmitter) GetStatistics() map[string]interface{} {
	e.stats.mutex.RLock()
	defer e.stats.mutex.RUnlock()

	return map[string]interface{}{
		"server_url":        e.config.ServerURL,
		"emit_count":        e.stats.EmitCount,
		"success_count":     e.stats.SuccessCount,
		"error_count":       e.stats.ErrorCount,
		"retry_count":       e.stats.RetryCount,
		"last_emit_time":    e.stats.LastEmitTime,
		"last_success_time": e.stats.LastSuccessTime,
	}
}
