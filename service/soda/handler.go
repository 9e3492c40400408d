/*
 * @module service/soda/handler
 * @description 扫描处理器，遍历扫描结果中的表和检查，转换并发射断言元数据
 * @architecture 分层架构 - 服务层编排
 * @documentReference ai_docs/soda_scan_format.md
 * @stateFlow 扫描结果 -> 逐表构建URN -> 按(table,schema)精确匹配检查 -> 转换 -> 发射三元组
 * @rules
 *   - 每个检查按定义切面、平台切面、运行事件切面的顺序发射，三者齐发才计数
 *   - 单表/单检查失败记录警告后跳过，发射失败走顶层错误路径
 *   - 顶层失败行为由构造时的错误策略决定：宽容模式返回结构化错误，严格模式返回错误给调用方
 * @dependencies log/slog, service/models, service/metrics
 * @refs client/datahub_emitter.go, api/controllers/scan_controller.go
 */

package soda

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"soda-datahub-connector/service/metrics"
	"soda-datahub-connector/service/models"
)

// Emitter 元数据发射器，按断言URN幂等upsert元数据切面
type Emitter interface {
	EmitMCP(ctx context.Context, mcp *models.MetadataChangeProposal) error
}

// ErrorPolicy 顶层失败处理策略
type ErrorPolicy int

const (
	// ErrorPolicyGraceful 宽容模式：顶层失败转换为结构化错误结果
	ErrorPolicyGraceful ErrorPolicy = iota
	// ErrorPolicyStrict 严格模式：顶层失败作为错误返回给调用方
	ErrorPolicyStrict
)

// HandlerConfig 扫描处理器配置
type HandlerConfig struct {
	Env                    string            // DataHub环境标签，默认PROD
	PlatformAlias          string            // 平台别名，优先于数据源名映射
	PlatformInstanceMap    map[string]string // 数据源名到平台实例的映射
	ConvertURNsToLowercase bool              // 是否小写折叠数据集名
	ErrorPolicy            ErrorPolicy       // 顶层失败处理策略
}

// Handler Soda扫描结果处理器
type Handler struct {
	config    HandlerConfig
	emitter   Emitter
	builder   *URNBuilder
	converter *CheckConverter
	validator *PolicyValidator
}

// NewHandler 创建扫描处理器
func NewHandler(config HandlerConfig, emitter Emitter) *Handler {
	if config.Env == "" {
		config.Env = "PROD"
	}
	builder := NewURNBuilder(config.Env, config.PlatformAlias, config.ConvertURNsToLowercase)
	return &Handler{
		config:    config,
		emitter:   emitter,
		builder:   builder,
		converter: NewCheckConverter(builder),
		validator: NewPolicyValidator(),
	}
}

// URNBuilder 返回处理器使用的URN构建器
func (h *Handler) URNBuilder() *URNBuilder {
	return h.builder
}

// Validator 返回治理策略校验器
func (h *Handler) Validator() *PolicyValidator {
	return h.validator
}

// ProcessScanResult 处理一次扫描结果并发送元数据到DataHub
// scanTime为零值时使用当前UTC时间
func (h *Handler) ProcessScanResult(ctx context.Context, scanResult *models.ScanResult, scanTime time.Time) (*models.ProcessResult, error) {
	if scanTime.IsZero() {
		scanTime = time.Now().UTC()
	}

	result, err := h.processScan(ctx, scanResult, scanTime)
	if err != nil {
		errMsg := fmt.Sprintf("处理Soda扫描结果失败: %v", err)
		slog.Error(errMsg, "scan_id", scanResult.ScanID)
		metrics.ScansProcessedTotal.WithLabelValues(models.ProcessStatusError).Inc()

		if h.config.ErrorPolicy == ErrorPolicyGraceful {
			return &models.ProcessResult{
				Status: models.ProcessStatusError,
				Error:  errMsg,
			}, nil
		}
		return nil, fmt.Errorf("%s", errMsg)
	}

	metrics.ScansProcessedTotal.WithLabelValues(models.ProcessStatusSuccess).Inc()
	return result, nil
}

// processScan 扫描处理主循环
func (h *Handler) processScan(ctx context.Context, scanResult *models.ScanResult, scanTime time.Time) (result *models.ProcessResult, err error) {
	// 顶层兜底，处理过程中的panic统一走错误路径
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("扫描处理发生未预期错误: %v", r)
		}
	}()

	scanID := scanResult.ScanID
	if scanID == "" {
		scanID = fmt.Sprintf("scan_%d", time.Now().Unix())
	}
	dataSourceName := scanResult.DataSourceName
	if dataSourceName == "" {
		dataSourceName = "unknown"
	}

	slog.Info("开始处理Soda扫描",
		"scan_id", scanID,
		"data_source", dataSourceName,
		"tables", len(scanResult.Tables),
		"checks", len(scanResult.Checks))

	assertionsSent := 0
	for _, table := range scanResult.Tables {
		platformInstance := h.config.PlatformInstanceMap[dataSourceName]

		datasetURN := h.builder.BuildDatasetURN(
			dataSourceName, table.DatabaseName, table.SchemaName, table.TableName, platformInstance)
		if datasetURN == "" {
			slog.Warn("无法构建数据集URN，跳过该表",
				"schema", table.SchemaName,
				"table", table.TableName)
			metrics.TablesSkippedTotal.Inc()
			continue
		}

		slog.Info("处理数据集", "dataset_urn", datasetURN)

		// 检查与表通过(table,schema)精确字符串匹配关联
		for _, check := range scanResult.Checks {
			if check.Table != table.TableName || check.Schema != table.SchemaName {
				continue
			}

			assertionInfo, runEvent, convErr := h.converter.ConvertCheck(check, datasetURN, scanID, scanTime)
			if convErr != nil {
				slog.Warn("检查转换失败，跳过该检查",
					"check_name", check.Name,
					"error", convErr)
				metrics.ChecksSkippedTotal.Inc()
				continue
			}

			if emitErr := h.emitAssertion(ctx, runEvent.AssertionURN, assertionInfo, runEvent); emitErr != nil {
				return nil, emitErr
			}

			assertionsSent++
			metrics.AssertionsSentTotal.Inc()
		}
	}

	slog.Info("扫描处理完成", "scan_id", scanID, "assertions_sent", assertionsSent)
	return &models.ProcessResult{
		Status:         models.ProcessStatusSuccess,
		AssertionsSent: assertionsSent,
		ScanID:         scanID,
	}, nil
}

// emitAssertion 按固定顺序发射断言的三个切面：定义 -> 平台归属 -> 运行事件
func (h *Handler) emitAssertion(ctx context.Context, assertionURN string, assertionInfo *models.AssertionInfo, runEvent *models.AssertionRunEvent) error {
	infoMCP, err := models.NewMetadataChangeProposal(assertionURN, models.AspectAssertionInfo, assertionInfo)
	if err != nil {
		return err
	}
	if err := h.emitter.EmitMCP(ctx, infoMCP); err != nil {
		return fmt.Errorf("发射断言定义切面失败: %v", err)
	}

	platformMCP, err := models.NewMetadataChangeProposal(assertionURN, models.AspectDataPlatformInstance, &models.DataPlatformInstance{
		Platform: MakeDataPlatformURN(SodaPlatformName),
	})
	if err != nil {
		return err
	}
	if err := h.emitter.EmitMCP(ctx, platformMCP); err != nil {
		return fmt.Errorf("发射断言平台切面失败: %v", err)
	}

	runEventMCP, err := models.NewMetadataChangeProposal(assertionURN, models.AspectAssertionRunEvent, runEvent)
	if err != nil {
		return err
	}
	if err := h.emitter.EmitMCP(ctx, runEventMCP); err != nil {
		return fmt.Errorf("发射断言运行事件切面失败: %v", err)
	}

	return nil
}
