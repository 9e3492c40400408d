/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference ai_docs/test_plan.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify
 * @refs service/models
 */

package testutil

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"soda-datahub-connector/service/models"
)

// NewTestDB 创建内存sqlite测试数据库
func NewTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	if err := db.AutoMigrate(&models.ScanRecord{}); err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return db
}

// MockEmitter 记录所有提交的MCP的测试发射器
type MockEmitter struct {
	mutex     sync.Mutex
	Proposals []*models.MetadataChangeProposal
	FailAfter int // 大于0时，第FailAfter次提交开始失败
}

// EmitMCP 记录提案，按配置模拟失败
func (m *MockEmitter) EmitMCP(ctx context.Context, mcp *models.MetadataChangeProposal) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.FailAfter > 0 && len(m.Proposals)+1 >= m.FailAfter {
		return fmt.Errorf("mock emitter failure")
	}

	m.Proposals = append(m.Proposals, mcp)
	return nil
}

// AspectNames 返回按提交顺序排列的切面名列表
func (m *MockEmitter) AspectNames() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	names := make([]string, 0, len(m.Proposals))
	for _, p := range m.Proposals {
		names = append(names, p.AspectName)
	}
	return names
}

// NewSampleScanResult 创建标准测试扫描结果：
// postgres数据源，mydb.public.users表，一个通过的missing_count检查
// 和一个失败的duplicate_count检查
func NewSampleScanResult() *models.ScanResult {
	return &models.ScanResult{
		ScanID:         "scan_test_001",
		DataSourceName: "postgres",
		Tables: []models.TableInfo{
			{
				TableName:    "users",
				SchemaName:   "public",
				DatabaseName: "mydb",
			},
		},
		Checks: []models.CheckResult{
			{
				Name:       "id_not_missing",
				Type:       "missing_count",
				Definition: "missing_count(id) = 0",
				Outcome:    "pass",
				Column:     "id",
				Table:      "users",
				Schema:     "public",
				Metrics: []models.Metric{
					{ID: "row_count", Value: float64(1000)},
					{ID: "missing_count", Value: float64(0)},
				},
				Raw: map[string]interface{}{
					"name":       "id_not_missing",
					"type":       "missing_count",
					"definition": "missing_count(id) = 0",
					"outcome":    "pass",
					"column":     "id",
					"table":      "users",
					"schema":     "public",
				},
			},
			{
				Name:       "email_unique",
				Type:       "duplicate_count",
				Definition: "duplicate_count(email) = 0",
				Outcome:    "fail",
				Column:     "email",
				Table:      "users",
				Schema:     "public",
				Metrics: []models.Metric{
					{ID: "duplicate_count", Value: float64(3)},
				},
				Raw: map[string]interface{}{
					"name":       "email_unique",
					"type":       "duplicate_count",
					"definition": "duplicate_count(email) = 0",
					"outcome":    "fail",
					"column":     "email",
					"table":      "users",
					"schema":     "public",
				},
			},
		},
	}
}
