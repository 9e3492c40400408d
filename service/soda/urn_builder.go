/*
 * @module service/soda/urn_builder
 * @description 数据集URN构建器，将Soda数据源和表信息映射为DataHub数据集URN
 * @architecture 工具层 - 纯函数式URN构建
 * @documentReference ai_docs/datahub_urn_format.md
 * @stateFlow 数据源名 -> 平台解析 -> 数据集名组合 -> URN拼接
 * @rules
 *   - 平台别名优先于静态映射表，未知数据源名小写透传
 *   - 小写折叠只作用于组合后的数据集名，不作用于平台和环境
 *   - 构建失败返回空串并记录警告，调用方跳过该表
 * @dependencies log/slog, strings
 * @refs service/soda/handler.go
 */

package soda

import (
	"fmt"
	"log/slog"
	"strings"
)

// SodaPlatformName 连接器在DataHub中的平台名
const SodaPlatformName = "soda"

// platformMap Soda数据源名到DataHub平台名的静态映射
var platformMap = map[string]string{
	"postgres":   "postgres",
	"snowflake":  "snowflake",
	"bigquery":   "bigquery",
	"redshift":   "redshift",
	"mysql":      "mysql",
	"mssql":      "mssql",
	"oracle":     "oracle",
	"databricks": "databricks",
	"spark":      "spark",
}

// URNBuilder 数据集URN构建器
type URNBuilder struct {
	env                    string
	platformAlias          string
	convertURNsToLowercase bool
}

// NewURNBuilder 创建URN构建器
func NewURNBuilder(env, platformAlias string, convertURNsToLowercase bool) *URNBuilder {
	return &URNBuilder{
		env:                    env,
		platformAlias:          platformAlias,
		convertURNsToLowercase: convertURNsToLowercase,
	}
}

// ResolvePlatform 解析DataHub平台名
func (b *URNBuilder) ResolvePlatform(dataSourceName string) string {
	if b.platformAlias != "" {
		return b.platformAlias
	}
	if platform, ok := platformMap[strings.ToLower(dataSourceName)]; ok {
		return platform
	}
	return strings.ToLower(dataSourceName)
}

// BuildDatasetURN 构建数据集URN
// 数据集名按 database.schema.table > schema.table > table 的优先级组合；
// 表名为空视为非法输入，返回空串
func (b *URNBuilder) BuildDatasetURN(dataSourceName, databaseName, schemaName, tableName, platformInstance string) string {
	if tableName == "" {
		slog.Warn("数据集URN构建失败: 表名为空",
			"data_source", dataSourceName,
			"schema", schemaName)
		return ""
	}

	platform := b.ResolvePlatform(dataSourceName)

	var datasetName string
	switch {
	case databaseName != "" && schemaName != "":
		datasetName = fmt.Sprintf("%s.%s.%s", databaseName, schemaName, tableName)
	case schemaName != "":
		datasetName = fmt.Sprintf("%s.%s", schemaName, tableName)
	default:
		datasetName = tableName
	}

	if b.convertURNsToLowercase {
		datasetName = strings.ToLower(datasetName)
	}

	if platformInstance != "" {
		datasetName = fmt.Sprintf("%s.%s", platformInstance, datasetName)
	}

	return fmt.Sprintf("urn:li:dataset:(%s,%s,%s)",
		MakeDataPlatformURN(platform), datasetName, b.env)
}

// MakeDataPlatformURN 构建数据平台URN
func MakeDataPlatformURN(platform string) string {
	return "urn:li:dataPlatform:" + platform
}

// MakeSchemaFieldURN 构建字段URN
func MakeSchemaFieldURN(datasetURN, fieldPath string) string {
	return fmt.Sprintf("urn:li:schemaField:(%s,%s)", datasetURN, fieldPath)
}

// MakeAssertionURN 构建断言URN
func MakeAssertionURN(guid string) string {
	return "urn:li:assertion:" + guid
}
