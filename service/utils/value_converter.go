/*
 * @module service/utils/value_converter
 * @description 值转换工具，负责指标值和原生结果的字符串化、整数化转换
 * @architecture 工具函数模式，提供无状态转换方法
 * @documentReference ai_docs/soda_scan_format.md
 * @stateFlow 无状态转换：输入 -> 转换逻辑 -> 输出
 * @rules
 *   - 数字和字符串直接取其文本形式，其他类型走JSON序列化
 *   - 整数解析为尽力而为，失败返回nil而不是报错
 * @dependencies github.com/spf13/cast, encoding/json
 * @refs service/soda/assertion_converter.go
 */

package utils

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"
)

// ConvertToString 转换任意值为字符串
// 字符串、整数、浮点数直接转换，其他类型尝试JSON序列化
func ConvertToString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return cast.ToString(v)
	case float32, float64:
		return cast.ToString(v)
	case json.Number:
		return v.String()
	default:
		if data, err := json.Marshal(value); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", value)
	}
}

// ParseInt64OrNil 尽力解析整数，无法解析时返回nil
func ParseInt64OrNil(value interface{}) *int64 {
	if value == nil {
		return nil
	}
	parsed, err := cast.ToInt64E(value)
	if err != nil {
		return nil
	}
	return &parsed
}

// ToFloat64 尝试提取数字值，非数字类型返回false
// 字符串形式的数字不算数字，与指标聚合值的取值规则保持一致
func ToFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}
