/*
 * @module service/soda/guid
 * @description 断言标识符构建器，基于规范化JSON的内容哈希生成稳定GUID
 * @architecture 工具层 - 确定性哈希
 * @documentReference ai_docs/datahub_urn_format.md
 * @stateFlow 规范字段元组 -> 键排序紧凑JSON -> ASCII转义 -> md5十六进制
 * @rules
 *   - 同一元组在任何进程中生成相同GUID，任一字段变化生成不同GUID
 *   - 无关联列时fields字段以null参与哈希
 *   - 规范JSON为键排序紧凑形式，不做HTML转义，非ASCII字符以\uXXXX转义
 * @dependencies crypto/md5, encoding/json
 * @refs service/soda/assertion_converter.go
 */

package soda

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// AssertionGUID 基于断言规范元组生成确定性GUID
// fieldURNs为nil时以null参与哈希，与DataHub的GUID算法保持一致
func AssertionGUID(platform, nativeType, definition, datasetURN string, fieldURNs []string, checkName string) (string, error) {
	// map序列化时键按字典序排序，产生规范化JSON
	canonical := map[string]interface{}{
		"platform":   platform,
		"nativeType": nativeType,
		"nativeParameters": map[string]string{
			"definition": definition,
		},
		"dataset":   datasetURN,
		"fields":    fieldURNs,
		"checkName": checkName,
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	// 定义文本中的比较运算符(<、>、&)必须原样参与哈希
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(canonical); err != nil {
		return "", fmt.Errorf("断言GUID规范化序列化失败: %v", err)
	}

	data := escapeNonASCII(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

// escapeNonASCII 将JSON文本中的非ASCII字符转义为\uXXXX形式
// 超出基本平面的字符按UTF-16代理对转义
func escapeNonASCII(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, r := range string(data) {
		if r < utf8.RuneSelf {
			out = append(out, byte(r))
			continue
		}
		if r > 0xFFFF {
			r -= 0x10000
			out = append(out, fmt.Sprintf(`\u%04x\u%04x`, 0xD800+(r>>10), 0xDC00+(r&0x3FF))...)
			continue
		}
		out = append(out, fmt.Sprintf(`\u%04x`, r)...)
	}
	return out
}
