package soda

import (
	"encoding/json"
	"fmt"
	"os"

	"soda-datahub-connector/service/models"
)

// LoadScanResultFile 从UTF-8 JSON文件加载Soda扫描结果
func LoadScanResultFile(path string) (*models.ScanResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取扫描结果文件失败 %s: %v", path, err)
	}

	var scanResult models.ScanResult
	if err := json.Unmarshal(data, &scanResult); err != nil {
		return nil, fmt.Errorf("解析扫描结果文件失败 %s: %v", path, err)
	}

	return &scanResult, nil
}

// LoadPlatformInstanceMap 从JSON文件加载数据源到平台实例的映射
func LoadPlatformInstanceMap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取平台实例映射文件失败 %s: %v", path, err)
	}

	var instanceMap map[string]string
	if err := json.Unmarshal(data, &instanceMap); err != nil {
		return nil, fmt.Errorf("解析平台实例映射文件失败 %s: %v", path, err)
	}

	return instanceMap, nil
}
