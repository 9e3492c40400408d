/*
 * @module service/models/scan_result
 * @description Soda扫描结果数据模型，定义扫描、表、检查、指标等输入结构
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/soda_scan_format.md
 * @stateFlow 外部Soda扫描产生 -> JSON解析 -> 断言转换 -> 丢弃
 * @rules 扫描结果为不可变输入，解析后不再修改；检查记录保留原始键值用于nativeResults
 * @dependencies encoding/json
 * @refs service/soda/handler.go
 */

package models

import "encoding/json"

// ScanResult Soda扫描结果，一次扫描产生的表和检查集合
type ScanResult struct {
	ScanID         string        `json:"scanId"`
	DataSourceName string        `json:"dataSourceName"`
	Tables         []TableInfo   `json:"tables"`
	Checks         []CheckResult `json:"checks"`
}

// TableInfo 扫描涉及的表信息
type TableInfo struct {
	TableName    string `json:"tableName"`
	SchemaName   string `json:"schemaName"`
	DatabaseName string `json:"databaseName"`
}

// CheckResult 单个数据质量检查结果
// Raw保留检查记录的全部原始键值，转换nativeResults时需要枚举
// name/type/definition/outcome之外的所有字段
type CheckResult struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Definition string   `json:"definition"`
	Outcome    string   `json:"outcome"`
	Column     string   `json:"column,omitempty"`
	Table      string   `json:"table"`
	Schema     string   `json:"schema"`
	Metrics    []Metric `json:"metrics,omitempty"`

	Raw map[string]interface{} `json:"-"`
}

// Metric 检查产生的指标，value可能是数字或字符串
type Metric struct {
	ID    string      `json:"id"`
	Value interface{} `json:"value"`
}

// checkResultAlias 避免UnmarshalJSON递归
type checkResultAlias CheckResult

// UnmarshalJSON 解析检查记录，同时保留原始键值
func (c *CheckResult) UnmarshalJSON(data []byte) error {
	var alias checkResultAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = CheckResult(alias)
	c.Raw = raw
	return nil
}

// MarshalJSON 序列化时忽略Raw，按结构体字段输出
func (c CheckResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(checkResultAlias(c))
}

// ProcessResult 扫描处理结果
type ProcessResult struct {
	Status         string `json:"status"`
	AssertionsSent int    `json:"assertions_sent,omitempty"`
	ScanID         string `json:"scan_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

// 处理状态常量
const (
	ProcessStatusSuccess = "success"
	ProcessStatusError   = "error"
)
