/*
 * @module client/kafka_emitter
 * @description Kafka发射器，将元数据变更提案写入DataHub的MCP摄取主题
 * @architecture 适配器模式 - 封装第三方Kafka客户端，提供统一的发射接口
 * @documentReference ai_docs/datahub_kafka_ingestion.md
 * @stateFlow 连接建立 -> MCP序列化 -> 按断言URN分区写入 -> 连接关闭
 * @rules 消息key为实体URN，保证同一断言的切面顺序写入同一分区
 * @dependencies github.com/segmentio/kafka-go, encoding/json
 * @refs service/soda/handler.go, service/models/assertion.go
 */

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"soda-datahub-connector/service/models"
)

// DefaultMCPTopic DataHub默认的MCP摄取主题
const DefaultMCPTopic = "MetadataChangeProposal_v1"

// KafkaEmitterConfig Kafka发射器配置
type KafkaEmitterConfig struct {
	Brokers      []string      `json:"brokers"`       // Kafka broker地址列表
	Topic        string        `json:"topic"`         // MCP摄取主题，默认MetadataChangeProposal_v1
	BatchTimeout time.Duration `json:"batch_timeout"` // 批量写入等待时间
}

// KafkaEmitter Kafka元数据发射器
type KafkaEmitter struct {
	config KafkaEmitterConfig
	writer *kafka.Writer
	mutex  sync.Mutex
}

// NewKafkaEmitter 创建Kafka发射器
func NewKafkaEmitter(config KafkaEmitterConfig) *KafkaEmitter {
	if config.Topic == "" {
		config.Topic = DefaultMCPTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	if config.BatchTimeout > 0 {
		writer.BatchTimeout = config.BatchTimeout
	}

	slog.Info("Kafka发射器已初始化", "brokers", config.Brokers, "topic", config.Topic)

	return &KafkaEmitter{
		config: config,
		writer: writer,
	}
}

// EmitMCP 将元数据变更提案写入摄取主题
// 以实体URN作为消息key，同一断言的三个切面落在同一分区保持顺序
func (e *KafkaEmitter) EmitMCP(ctx context.Context, mcp *models.MetadataChangeProposal) error {
	value, err := json.Marshal(mcp)
	if err != nil {
		return fmt.Errorf("序列化元数据提案失败: %v", err)
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	err = e.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(mcp.EntityURN),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("写入MCP消息失败 topic=%s: %v", e.config.Topic, err)
	}

	return nil
}

// Close 关闭Kafka发射器
func (e *KafkaEmitter) Close() error {
	if e.writer != nil {
		return e.writer.Close()
	}
	return nil
}
