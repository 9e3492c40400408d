/*
 * @module service/models/assertion
 * @description DataHub断言切面模型，对应assertionInfo、assertionRunEvent等元数据切面
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/datahub_assertion_aspects.md
 * @stateFlow 检查转换生成 -> MCP包装 -> 发射器提交 -> 丢弃
 * @rules 字段命名与DataHub切面JSON模型保持一致；枚举值使用DataHub闭集词汇
 * @dependencies encoding/json
 * @refs service/soda/assertion_converter.go, client/datahub_emitter.go
 */

package models

import (
	"encoding/json"
	"fmt"
)

// 断言范围枚举
const (
	ScopeDatasetRows   = "DATASET_ROWS"
	ScopeDatasetColumn = "DATASET_COLUMN"
	ScopeDatasetSchema = "DATASET_SCHEMA"
)

// 断言操作符枚举
const (
	OperatorNotNull = "NOT_NULL"
	OperatorNative  = "_NATIVE_"
)

// 断言聚合枚举
const (
	AggregationIdentity    = "IDENTITY"
	AggregationUniqueCount = "UNIQUE_COUNT"
	AggregationRowCount    = "ROW_COUNT"
	AggregationColumns     = "COLUMNS"
	AggregationNative      = "_NATIVE_"
)

// 断言结果类型枚举
const (
	ResultSuccess = "SUCCESS"
	ResultFailure = "FAILURE"
)

// RunStatusComplete 断言运行状态，本连接器只产生已完成事件
const RunStatusComplete = "COMPLETE"

// AssertionTypeDataset 断言类型，Soda检查均为数据集断言
const AssertionTypeDataset = "DATASET"

// DatasetAssertionInfo 数据集断言的语义分类
type DatasetAssertionInfo struct {
	Dataset          string            `json:"dataset"`
	Scope            string            `json:"scope"`
	Fields           []string          `json:"fields,omitempty"`
	Operator         string            `json:"operator"`
	Aggregation      string            `json:"aggregation"`
	NativeType       string            `json:"nativeType"`
	NativeParameters map[string]string `json:"nativeParameters"`
}

// AssertionInfo 断言定义切面
type AssertionInfo struct {
	Type             string                `json:"type"`
	DatasetAssertion *DatasetAssertionInfo `json:"datasetAssertion"`
	CustomProperties map[string]string     `json:"customProperties,omitempty"`
}

// BatchSpec 批次规格，记录本次扫描批次信息
type BatchSpec struct {
	NativeBatchID    string            `json:"nativeBatchId"`
	Query            string            `json:"query,omitempty"`
	CustomProperties map[string]string `json:"customProperties,omitempty"`
}

// AssertionResult 断言运行结果
type AssertionResult struct {
	Type            string            `json:"type"`
	RowCount        *int64            `json:"rowCount,omitempty"`
	MissingCount    *int64            `json:"missingCount,omitempty"`
	UnexpectedCount *int64            `json:"unexpectedCount,omitempty"`
	ActualAggValue  *float64          `json:"actualAggValue,omitempty"`
	NativeResults   map[string]string `json:"nativeResults,omitempty"`
}

// AssertionRunEvent 断言运行事件切面
type AssertionRunEvent struct {
	TimestampMillis int64            `json:"timestampMillis"`
	RunID           string           `json:"runId"`
	AssertionURN    string           `json:"assertionUrn"`
	AsserteeURN     string           `json:"asserteeUrn"`
	BatchSpec       *BatchSpec       `json:"batchSpec,omitempty"`
	Status          string           `json:"status"`
	Result          *AssertionResult `json:"result"`
}

// DataPlatformInstance 平台归属切面
type DataPlatformInstance struct {
	Platform string `json:"platform"`
}

// 切面名称常量，与DataHub实体注册表一致
const (
	AspectAssertionInfo        = "assertionInfo"
	AspectDataPlatformInstance = "dataPlatformInstance"
	AspectAssertionRunEvent    = "assertionRunEvent"
)

// EntityTypeAssertion 断言实体类型
const EntityTypeAssertion = "assertion"

// ChangeTypeUpsert 元数据变更类型，发射器只做幂等upsert
const ChangeTypeUpsert = "UPSERT"

// GenericAspect MCP中序列化后的切面载荷
type GenericAspect struct {
	ContentType string          `json:"contentType"`
	Value       json.RawMessage `json:"value"`
}

// MetadataChangeProposal 元数据变更提案，发射器的统一输入
type MetadataChangeProposal struct {
	EntityType string         `json:"entityType"`
	EntityURN  string         `json:"entityUrn"`
	ChangeType string         `json:"changeType"`
	AspectName string         `json:"aspectName"`
	Aspect     *GenericAspect `json:"aspect"`
}

// NewMetadataChangeProposal 包装切面为MCP，切面序列化为JSON载荷
func NewMetadataChangeProposal(entityURN, aspectName string, aspect interface{}) (*MetadataChangeProposal, error) {
	value, err := json.Marshal(aspect)
	if err != nil {
		return nil, fmt.Errorf("序列化切面 %s 失败: %v", aspectName, err)
	}

	return &MetadataChangeProposal{
		EntityType: EntityTypeAssertion,
		EntityURN:  entityURN,
		ChangeType: ChangeTypeUpsert,
		AspectName: aspectName,
		Aspect: &GenericAspect{
			ContentType: "application/json",
			Value:       value,
		},
	}, nil
}
