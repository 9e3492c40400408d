/*
 * @module service/models/scan_record
 * @description 扫描处理历史记录模型，记录每次扫描的处理状态与发送数量
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/model.md
 * @stateFlow 扫描处理完成 -> 写入历史记录 -> 查询/去重
 * @rules 同一扫描文件只处理一次，source_file+scan_id用于目录监听去重
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/history/history_service.go, service/watcher/scan_watcher.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScanRecord 扫描处理历史记录
type ScanRecord struct {
	ID             string    `gorm:"type:uuid;primary_key" json:"id"`
	ScanID         string    `gorm:"not null;index" json:"scan_id"`
	DataSourceName string    `gorm:"size:200" json:"data_source_name"`
	SourceFile     string    `gorm:"size:500;index" json:"source_file,omitempty"`
	Status         string    `gorm:"not null;size:20" json:"status"` // success/error
	AssertionsSent int       `gorm:"not null;default:0" json:"assertions_sent"`
	Error          string    `gorm:"type:text" json:"error,omitempty"`
	ProcessedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"processed_at"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// BeforeCreate 创建前钩子
func (s *ScanRecord) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.ProcessedAt.IsZero() {
		s.ProcessedAt = time.Now()
	}
	return nil
}

// TableName 指定表名
func (s *ScanRecord) TableName() string {
	return "soda_scan_records"
}
