/*
 * @module service/watcher/scan_watcher_test
 * @description 目录监听器的单元测试
 * @architecture 单元测试 - 基于临时目录验证文件枚举、去重和失败重试
 * @documentReference ai_docs/scan_watcher.md
 * @stateFlow 临时目录写入 -> 扫描处理 -> 历史记录验证
 * @dependencies testing, github.com/stretchr/testify, testutil
 * @refs scan_watcher.go
 */

package watcher

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soda-datahub-connector/service/history"
	"soda-datahub-connector/service/models"
	"soda-datahub-connector/service/soda"
	"soda-datahub-connector/testutil"
)

func writeScanFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := json.Marshal(testutil.NewSampleScanResult())
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func newTestWatcher(t *testing.T, dir string, emitter soda.Emitter) (*ScanWatcher, *history.Service) {
	t.Helper()
	historyService, err := history.NewService(testutil.NewTestDB())
	require.NoError(t, err)

	handler := soda.NewHandler(soda.HandlerConfig{
		Env:         "PROD",
		ErrorPolicy: soda.ErrorPolicyGraceful,
	}, emitter)

	return NewScanWatcher(dir, "", handler, historyService), historyService
}

func TestScanWatcher_ProcessesEachFileOnce(t *testing.T) {
	dir := t.TempDir()
	writeScanFile(t, dir, "scan1.json")
	writeScanFile(t, dir, "scan2.json")

	emitter := &testutil.MockEmitter{}
	watcher, historyService := newTestWatcher(t, dir, emitter)

	processed := watcher.ScanDirectory(context.Background())
	assert.Equal(t, 2, processed)
	assert.Len(t, emitter.Proposals, 12)

	records, err := historyService.ListRecords(10)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	// 二次扫描不重复处理已成功的文件
	processed = watcher.ScanDirectory(context.Background())
	assert.Equal(t, 0, processed)
	assert.Len(t, emitter.Proposals, 12)
}

func TestScanWatcher_IgnoresNonJSONFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not a scan"), 0644))

	emitter := &testutil.MockEmitter{}
	watcher, _ := newTestWatcher(t, dir, emitter)

	processed := watcher.ScanDirectory(context.Background())
	assert.Equal(t, 0, processed)
	assert.Empty(t, emitter.Proposals)
}

func TestScanWatcher_RecordsFailureAndRetries(t *testing.T) {
	dir := t.TempDir()
	file := writeScanFile(t, dir, "scan1.json")

	// 首轮发射失败，文件被标记为失败
	emitter := &testutil.MockEmitter{FailAfter: 1}
	watcher, historyService := newTestWatcher(t, dir, emitter)

	processed := watcher.ScanDirectory(context.Background())
	assert.Equal(t, 0, processed)

	records, err := historyService.ListRecords(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.ProcessStatusError, records[0].Status)
	assert.Equal(t, file, records[0].SourceFile)

	// 失败的文件在下一轮重试
	emitter.FailAfter = 0
	emitter.Proposals = nil

	processed = watcher.ScanDirectory(context.Background())
	assert.Equal(t, 1, processed)
	assert.Len(t, emitter.Proposals, 6)
}

func TestScanWatcher_InvalidFileRecordedAsFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644))

	emitter := &testutil.MockEmitter{}
	watcher, historyService := newTestWatcher(t, dir, emitter)

	processed := watcher.ScanDirectory(context.Background())
	assert.Equal(t, 0, processed)

	records, err := historyService.ListRecords(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.ProcessStatusError, records[0].Status)
}
