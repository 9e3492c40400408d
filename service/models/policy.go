/*
 * @module service/models/policy
 * @description 治理策略校验模型，定义策略描述符与校验结果结构
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/model.md
 * @stateFlow 策略列表输入 -> 校验 -> 结果返回
 * @rules 当前校验为占位实现，结果状态固定为validated
 * @refs service/soda/policy_validator.go
 */

package models

// GovernancePolicy 治理策略描述符
type GovernancePolicy struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// PolicyDetail 单条策略的校验明细
type PolicyDetail struct {
	Policy string `json:"policy"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// PolicyValidationResult 策略校验结果
type PolicyValidationResult struct {
	DatasetURN        string         `json:"dataset_urn"`
	PoliciesValidated int            `json:"policies_validated"`
	Compliant         int            `json:"compliant"`
	NonCompliant      int            `json:"non_compliant"`
	Details           []PolicyDetail `json:"details"`
}
