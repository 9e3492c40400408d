/*
 * @module client/datahub_emitter_test
 * @description DataHub REST发射器的单元测试
 * @architecture 单元测试 - 基于httptest验证请求格式、认证头和重试策略
 * @documentReference ai_docs/datahub_rest_api.md
 * @stateFlow 模拟GMS服务 -> 提案提交 -> 请求内容和统计验证
 * @dependencies testing, net/http/httptest, github.com/stretchr/testify
 * @refs datahub_emitter.go
 */

package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soda-datahub-connector/service/models"
)

func newTestMCP(t *testing.T) *models.MetadataChangeProposal {
	t.Helper()
	mcp, err := models.NewMetadataChangeProposal(
		"urn:li:assertion:abc123",
		models.AspectDataPlatformInstance,
		&models.DataPlatformInstance{Platform: "urn:li:dataPlatform:soda"},
	)
	require.NoError(t, err)
	return mcp
}

func TestDataHubEmitter_EmitMCP(t *testing.T) {
	var captured *http.Request
	var capturedBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(r.Context())
		capturedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	emitter := NewDataHubEmitter(DataHubEmitterConfig{
		ServerURL:    server.URL,
		Token:        "test-token",
		ExtraHeaders: map[string]string{"X-Tenant": "demo"},
	})

	require.NoError(t, emitter.EmitMCP(context.Background(), newTestMCP(t)))

	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "/aspects", captured.URL.Path)
	assert.Equal(t, "action=ingestProposal", captured.URL.RawQuery)
	assert.Equal(t, "application/json", captured.Header.Get("Content-Type"))
	assert.Equal(t, "2.0.0", captured.Header.Get("X-RestLi-Protocol-Version"))
	assert.Equal(t, "Bearer test-token", captured.Header.Get("Authorization"))
	assert.Equal(t, "demo", captured.Header.Get("X-Tenant"))

	// 请求体为proposal包装的MCP
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(capturedBody, &payload))
	proposal, ok := payload["proposal"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "urn:li:assertion:abc123", proposal["entityUrn"])
	assert.Equal(t, "dataPlatformInstance", proposal["aspectName"])

	stats := emitter.GetStatistics()
	assert.Equal(t, int64(1), stats["emit_count"])
	assert.Equal(t, int64(1), stats["success_count"])
}

func TestDataHubEmitter_RetryOnConfiguredStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	emitter := NewDataHubEmitter(DataHubEmitterConfig{
		ServerURL:        server.URL,
		RetryStatusCodes: []int{429, 502},
		RetryMaxTimes:    2,
	})

	require.NoError(t, emitter.EmitMCP(context.Background(), newTestMCP(t)))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	stats := emitter.GetStatistics()
	assert.Equal(t, int64(1), stats["retry_count"])
	assert.Equal(t, int64(1), stats["success_count"])
}

func TestDataHubEmitter_NoRetryOnUnlistedStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	emitter := NewDataHubEmitter(DataHubEmitterConfig{
		ServerURL:        server.URL,
		RetryStatusCodes: []int{429, 502},
		RetryMaxTimes:    3,
	})

	err := emitter.EmitMCP(context.Background(), newTestMCP(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	// 400不在重试状态码列表中，只请求一次
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	stats := emitter.GetStatistics()
	assert.Equal(t, int64(1), stats["error_count"])
}

func TestDataHubEmitter_TestConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/config" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	emitter := NewDataHubEmitter(DataHubEmitterConfig{ServerURL: server.URL})
	assert.NoError(t, emitter.TestConnection(context.Background()))

	badEmitter := NewDataHubEmitter(DataHubEmitterConfig{ServerURL: server.URL + "/missing"})
	assert.Error(t, badEmitter.TestConnection(context.Background()))
}
