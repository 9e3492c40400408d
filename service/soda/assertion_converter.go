/*
 * @module service/soda/assertion_converter
 * @description 检查转换器，将单个Soda检查映射为DataHub断言定义和运行事件
 * @architecture 工具层 - 纯映射逻辑
 * @documentReference ai_docs/datahub_assertion_aspects.md
 * @stateFlow 检查记录 -> 结果判定 -> 指标提取 -> 语义分类 -> 断言切面
 * @rules
 *   - 结果成功集合为{pass,passed,success}，大小写不敏感
 *   - 聚合值取{min,max,avg,sum,count}中首个数字指标，后续同组指标不覆盖
 *   - 检查类型分类为有序闭集规则，首个命中的规则生效
 *   - 转换失败返回错误由调用方跳过，不向外传播异常
 * @dependencies service/models, service/utils
 * @refs service/soda/handler.go
 */

package soda

import (
	"fmt"
	"strings"
	"time"

	"soda-datahub-connector/service/models"
	"soda-datahub-connector/service/utils"
)

// successOutcomes 判定为成功的检查结果值
var successOutcomes = map[string]bool{
	"pass":    true,
	"passed":  true,
	"success": true,
}

// aggregationMetricIDs 作为聚合实际值来源的指标ID
var aggregationMetricIDs = map[string]bool{
	"min":   true,
	"max":   true,
	"avg":   true,
	"sum":   true,
	"count": true,
}

// nativeResultExcludedKeys nativeResults不收录的检查字段
var nativeResultExcludedKeys = map[string]bool{
	"name":       true,
	"type":       true,
	"definition": true,
	"outcome":    true,
}

// CheckConverter 检查到断言的转换器
type CheckConverter struct {
	builder *URNBuilder
}

// NewCheckConverter 创建检查转换器
func NewCheckConverter(builder *URNBuilder) *CheckConverter {
	return &CheckConverter{builder: builder}
}

// extractedMetrics 单次指标扫描的提取结果
type extractedMetrics struct {
	rowCount        *int64
	missingCount    *int64
	unexpectedCount *int64
	actualAggValue  *float64
}

// extractMetrics 单次遍历指标列表提取计数和聚合值
func extractMetrics(metrics []models.Metric) extractedMetrics {
	var result extractedMetrics
	for _, metric := range metrics {
		switch {
		case metric.ID == "row_count":
			result.rowCount = utils.ParseInt64OrNil(metric.Value)
		case metric.ID == "missing_count":
			result.missingCount = utils.ParseInt64OrNil(metric.Value)
		case metric.ID == "unexpected_count":
			result.unexpectedCount = utils.ParseInt64OrNil(metric.Value)
		case aggregationMetricIDs[metric.ID]:
			// 同组指标首个数字值生效，后续不覆盖
			if result.actualAggValue == nil {
				if value, ok := utils.ToFloat64(metric.Value); ok {
					result.actualAggValue = &value
				}
			}
		}
	}
	return result
}

// ConvertCheck 转换单个检查为断言定义和运行事件
// 返回错误表示该检查应被跳过，扫描处理继续
func (c *CheckConverter) ConvertCheck(check models.CheckResult, datasetURN, scanID string, scanTime time.Time) (*models.AssertionInfo, *models.AssertionRunEvent, error) {
	checkName := check.Name
	if checkName == "" {
		checkName = "unknown_check"
	}
	checkType := check.Type
	if checkType == "" {
		checkType = "unknown"
	}

	resultType := models.ResultFailure
	if successOutcomes[strings.ToLower(check.Outcome)] {
		resultType = models.ResultSuccess
	}

	extracted := extractMetrics(check.Metrics)

	var assertionFields []string
	if check.Column != "" {
		assertionFields = []string{MakeSchemaFieldURN(datasetURN, check.Column)}
	}

	guid, err := AssertionGUID(SodaPlatformName, checkType, check.Definition, datasetURN, assertionFields, checkName)
	if err != nil {
		return nil, nil, fmt.Errorf("构建断言标识符失败: %v", err)
	}
	assertionURN := MakeAssertionURN(guid)

	assertionInfo := buildAssertionInfo(checkType, check.Definition, datasetURN, assertionFields, checkName)

	nativeResults := make(map[string]string)
	for key, value := range check.Raw {
		if nativeResultExcludedKeys[key] || value == nil {
			continue
		}
		nativeResults[key] = utils.ConvertToString(value)
	}

	runEvent := &models.AssertionRunEvent{
		TimestampMillis: time.Now().UnixMilli(),
		RunID:           scanTime.UTC().Format("2006-01-02T15:04:05Z"),
		AssertionURN:    assertionURN,
		AsserteeURN:     datasetURN,
		BatchSpec: &models.BatchSpec{
			NativeBatchID: scanID,
			Query:         check.Definition,
			CustomProperties: map[string]string{
				"check_name":   checkName,
				"check_type":   checkType,
				"soda_scan_id": scanID,
			},
		},
		Status: models.RunStatusComplete,
		Result: &models.AssertionResult{
			Type:            resultType,
			RowCount:        extracted.rowCount,
			MissingCount:    extracted.missingCount,
			UnexpectedCount: extracted.unexpectedCount,
			ActualAggValue:  extracted.actualAggValue,
			NativeResults:   nativeResults,
		},
	}

	return assertionInfo, runEvent, nil
}

// buildAssertionInfo 按检查类型分类断言的范围、操作符和聚合方式
// 规则为有序闭集：null|missing -> unique -> row_count|count -> schema -> 列级兜底
func buildAssertionInfo(checkType, definition, datasetURN string, assertionFields []string, checkName string) *models.AssertionInfo {
	scope := models.ScopeDatasetRows
	operator := models.OperatorNative
	aggregation := models.AggregationNative

	checkLower := strings.ToLower(checkType)
	switch {
	case strings.Contains(checkLower, "null") || strings.Contains(checkLower, "missing"):
		if len(assertionFields) > 0 {
			scope = models.ScopeDatasetColumn
		}
		operator = models.OperatorNotNull
		aggregation = models.AggregationIdentity
	case strings.Contains(checkLower, "unique"):
		if len(assertionFields) > 0 {
			scope = models.ScopeDatasetColumn
		}
		aggregation = models.AggregationUniqueCount
	case strings.Contains(checkLower, "row_count") || strings.Contains(checkLower, "count"):
		aggregation = models.AggregationRowCount
	case strings.Contains(checkLower, "schema"):
		scope = models.ScopeDatasetSchema
		aggregation = models.AggregationColumns
	case len(assertionFields) > 0:
		scope = models.ScopeDatasetColumn
	}

	return &models.AssertionInfo{
		Type: models.AssertionTypeDataset,
		DatasetAssertion: &models.DatasetAssertionInfo{
			Dataset:     datasetURN,
			Scope:       scope,
			Fields:      assertionFields,
			Operator:    operator,
			Aggregation: aggregation,
			NativeType:  checkType,
			NativeParameters: map[string]string{
				"definition": definition,
			},
		},
		CustomProperties: map[string]string{
			"check_name":      checkName,
			"soda_check_type": checkType,
		},
	}
}
