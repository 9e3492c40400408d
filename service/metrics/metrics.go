/*
 * @module service/metrics
 * @description Prometheus指标定义，统计扫描处理和断言发送情况
 * @architecture 监控层 - 进程内指标收集
 * @documentReference ai_docs/monitoring.md
 * @stateFlow 处理过程中计数 -> /metrics端点暴露
 * @dependencies github.com/prometheus/client_golang
 * @refs service/soda/handler.go, main.go
 */

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansProcessedTotal 按结果状态统计的扫描处理总数
	ScansProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "soda_connector_scans_processed_total",
		Help: "处理的Soda扫描总数，按结果状态区分",
	}, []string{"status"})

	// AssertionsSentTotal 成功发送到DataHub的断言总数
	AssertionsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soda_connector_assertions_sent_total",
		Help: "成功发送到DataHub的断言总数",
	})

	// ChecksSkippedTotal 转换失败被跳过的检查总数
	ChecksSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soda_connector_checks_skipped_total",
		Help: "转换失败被跳过的检查总数",
	})

	// TablesSkippedTotal URN构建失败被跳过的表总数
	TablesSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soda_connector_tables_skipped_total",
		Help: "URN构建失败被跳过的表总数",
	})
)
