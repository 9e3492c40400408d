/*
 * @module service/soda/handler_test
 * @description 扫描处理器的单元测试
 * @architecture 单元测试 - 验证表检查关联、发射顺序和错误策略
 * @documentReference ai_docs/soda_scan_format.md
 * @stateFlow 扫描结果构造 -> 处理 -> 发射内容和计数验证
 * @dependencies testing, github.com/stretchr/testify, testutil
 * @refs handler.go
 */

package soda_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soda-datahub-connector/service/models"
	"soda-datahub-connector/service/soda"
	"soda-datahub-connector/testutil"
)

func newGracefulHandler(emitter soda.Emitter) *soda.Handler {
	return soda.NewHandler(soda.HandlerConfig{
		Env:         "PROD",
		ErrorPolicy: soda.ErrorPolicyGraceful,
	}, emitter)
}

func TestHandler_ProcessScanResult_EndToEnd(t *testing.T) {
	emitter := &testutil.MockEmitter{}
	handler := newGracefulHandler(emitter)

	result, err := handler.ProcessScanResult(context.Background(), testutil.NewSampleScanResult(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, models.ProcessStatusSuccess, result.Status)
	assert.Equal(t, 2, result.AssertionsSent)
	assert.Equal(t, "scan_test_001", result.ScanID)

	// 每个检查发射三个切面，顺序为定义 -> 平台归属 -> 运行事件
	require.Len(t, emitter.Proposals, 6)
	assert.Equal(t, []string{
		models.AspectAssertionInfo,
		models.AspectDataPlatformInstance,
		models.AspectAssertionRunEvent,
		models.AspectAssertionInfo,
		models.AspectDataPlatformInstance,
		models.AspectAssertionRunEvent,
	}, emitter.AspectNames())

	// 同一检查的三个切面指向同一断言URN
	assert.Equal(t, emitter.Proposals[0].EntityURN, emitter.Proposals[1].EntityURN)
	assert.Equal(t, emitter.Proposals[0].EntityURN, emitter.Proposals[2].EntityURN)
	assert.NotEqual(t, emitter.Proposals[0].EntityURN, emitter.Proposals[3].EntityURN)

	// 一个成功一个失败的运行结果
	var first, second models.AssertionRunEvent
	require.NoError(t, json.Unmarshal(emitter.Proposals[2].Aspect.Value, &first))
	require.NoError(t, json.Unmarshal(emitter.Proposals[5].Aspect.Value, &second))
	assert.Equal(t, models.ResultSuccess, first.Result.Type)
	assert.Equal(t, models.ResultFailure, second.Result.Type)

	// 平台归属切面固定为soda平台
	var platform models.DataPlatformInstance
	require.NoError(t, json.Unmarshal(emitter.Proposals[1].Aspect.Value, &platform))
	assert.Equal(t, "urn:li:dataPlatform:soda", platform.Platform)
}

func TestHandler_ProcessScanResult_ChecksJoinOnExactMatch(t *testing.T) {
	emitter := &testutil.MockEmitter{}
	handler := newGracefulHandler(emitter)

	scanResult := testutil.NewSampleScanResult()
	// schema不匹配的检查不应被发射
	scanResult.Checks[1].Schema = "other_schema"

	result, err := handler.ProcessScanResult(context.Background(), scanResult, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.AssertionsSent)
	assert.Len(t, emitter.Proposals, 3)
}

func TestHandler_ProcessScanResult_SkipsTableWithoutURN(t *testing.T) {
	emitter := &testutil.MockEmitter{}
	handler := newGracefulHandler(emitter)

	scanResult := testutil.NewSampleScanResult()
	scanResult.Tables[0].TableName = ""

	result, err := handler.ProcessScanResult(context.Background(), scanResult, time.Time{})
	require.NoError(t, err)

	// URN构建失败的表被跳过，处理整体仍然成功
	assert.Equal(t, models.ProcessStatusSuccess, result.Status)
	assert.Equal(t, 0, result.AssertionsSent)
	assert.Empty(t, emitter.Proposals)
}

func TestHandler_ProcessScanResult_DefaultScanID(t *testing.T) {
	emitter := &testutil.MockEmitter{}
	handler := newGracefulHandler(emitter)

	scanResult := testutil.NewSampleScanResult()
	scanResult.ScanID = ""

	result, err := handler.ProcessScanResult(context.Background(), scanResult, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, models.ProcessStatusSuccess, result.Status)
	assert.Contains(t, result.ScanID, "scan_")
}

func TestHandler_ProcessScanResult_EmitFailureGraceful(t *testing.T) {
	emitter := &testutil.MockEmitter{FailAfter: 2}
	handler := newGracefulHandler(emitter)

	result, err := handler.ProcessScanResult(context.Background(), testutil.NewSampleScanResult(), time.Time{})
	require.NoError(t, err)

	// 宽容模式下发射失败转换为结构化错误结果
	assert.Equal(t, models.ProcessStatusError, result.Status)
	assert.Contains(t, result.Error, "处理Soda扫描结果失败")
}

func TestHandler_ProcessScanResult_EmitFailureStrict(t *testing.T) {
	emitter := &testutil.MockEmitter{FailAfter: 2}
	handler := soda.NewHandler(soda.HandlerConfig{
		Env:         "PROD",
		ErrorPolicy: soda.ErrorPolicyStrict,
	}, emitter)

	result, err := handler.ProcessScanResult(context.Background(), testutil.NewSampleScanResult(), time.Time{})

	// 严格模式下发射失败作为错误返回
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestHandler_ProcessScanResult_PlatformInstanceMap(t *testing.T) {
	emitter := &testutil.MockEmitter{}
	handler := soda.NewHandler(soda.HandlerConfig{
		Env:                 "PROD",
		PlatformInstanceMap: map[string]string{"postgres": "cluster1"},
		ErrorPolicy:         soda.ErrorPolicyGraceful,
	}, emitter)

	_, err := handler.ProcessScanResult(context.Background(), testutil.NewSampleScanResult(), time.Time{})
	require.NoError(t, err)

	var info models.AssertionInfo
	require.NoError(t, json.Unmarshal(emitter.Proposals[0].Aspect.Value, &info))
	assert.Equal(t,
		"urn:li:dataset:(urn:li:dataPlatform:postgres,cluster1.mydb.public.users,PROD)",
		info.DatasetAssertion.Dataset)
}
