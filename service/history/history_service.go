/*
 * @module service/history/history_service
 * @description 扫描历史服务，记录每次扫描处理结果，支持目录监听去重和历史查询
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/model.md
 * @stateFlow 扫描处理完成 -> 写入记录 -> 查询/去重判断
 * @rules 历史存储为可选能力，未配置DSN时使用本地sqlite文件
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, gorm.io/driver/sqlite
 * @refs service/watcher/scan_watcher.go, api/controllers/scan_controller.go
 */

package history

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"soda-datahub-connector/service/models"
)

// Service 扫描历史服务
type Service struct {
	db *gorm.DB
}

// NewService 基于已有数据库连接创建历史服务
func NewService(db *gorm.DB) (*Service, error) {
	if err := db.AutoMigrate(&models.ScanRecord{}); err != nil {
		return nil, fmt.Errorf("扫描历史表迁移失败: %v", err)
	}
	return &Service{db: db}, nil
}

// Open 按DSN打开历史存储
// postgres://或host=开头的DSN走Postgres，否则按sqlite文件路径处理
func Open(dsn string) (*Service, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "host=") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("打开扫描历史存储失败: %v", err)
	}

	return NewService(db)
}

// RecordScan 写入一条扫描处理记录
func (s *Service) RecordScan(record *models.ScanRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("写入扫描记录失败: %v", err)
	}
	return nil
}

// HasProcessedFile 判断指定文件是否已成功处理过
func (s *Service) HasProcessedFile(sourceFile string) (bool, error) {
	var count int64
	err := s.db.Model(&models.ScanRecord{}).
		Where("source_file = ? AND status = ?", sourceFile, models.ProcessStatusSuccess).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询扫描记录失败: %v", err)
	}
	return count > 0, nil
}

// ListRecords 按处理时间倒序查询扫描记录
func (s *Service) ListRecords(limit int) ([]models.ScanRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var records []models.ScanRecord
	err := s.db.Order("processed_at DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("查询扫描记录失败: %v", err)
	}
	return records, nil
}

// Statistics 统计扫描处理情况
func (s *Service) Statistics() (map[string]interface{}, error) {
	var total, success, failed int64
	if err := s.db.Model(&models.ScanRecord{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("统计扫描记录失败: %v", err)
	}
	if err := s.db.Model(&models.ScanRecord{}).
		Where("status = ?", models.ProcessStatusSuccess).Count(&success).Error; err != nil {
		return nil, fmt.Errorf("统计扫描记录失败: %v", err)
	}
	if err := s.db.Model(&models.ScanRecord{}).
		Where("status = ?", models.ProcessStatusError).Count(&failed).Error; err != nil {
		return nil, fmt.Errorf("统计扫描记录失败: %v", err)
	}

	var assertions int64
	if err := s.db.Model(&models.ScanRecord{}).
		Select("COALESCE(SUM(assertions_sent), 0)").Scan(&assertions).Error; err != nil {
		return nil, fmt.Errorf("统计断言发送总数失败: %v", err)
	}

	return map[string]interface{}{
		"total_scans":      total,
		"success_scans":    success,
		"failed_scans":     failed,
		"assertions_total": assertions,
	}, nil
}
