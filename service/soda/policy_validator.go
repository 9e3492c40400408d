/*
 * @module service/soda/policy_validator
 * @description 治理策略校验器，对数据集的治理策略做校验记账
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/governance_validation.md
 * @stateFlow 策略列表 -> 逐条记账 -> 校验结果
 * @rules 当前为占位实现：所有策略状态固定为validated，合规计数不更新
 * @dependencies log/slog, service/models
 * @refs api/controllers/policy_controller.go
 */

package soda

import (
	"log/slog"

	"soda-datahub-connector/service/models"
)

// PolicyValidator 治理策略校验器
type PolicyValidator struct{}

// NewPolicyValidator 创建治理策略校验器
func NewPolicyValidator() *PolicyValidator {
	return &PolicyValidator{}
}

// ValidatePolicies 校验数据集的治理策略
// 占位实现：逐条标记为validated，不做真实合规判断。
// 完整实现需要从DataHub拉取策略、映射到期望的Soda检查并校验其存在与通过。
func (v *PolicyValidator) ValidatePolicies(datasetURN string, policies []models.GovernancePolicy, scanResult *models.ScanResult) *models.PolicyValidationResult {
	result := &models.PolicyValidationResult{
		DatasetURN:        datasetURN,
		PoliciesValidated: len(policies),
		Compliant:         0,
		NonCompliant:      0,
		Details:           make([]models.PolicyDetail, 0, len(policies)),
	}

	slog.Info("校验治理策略", "dataset_urn", datasetURN, "policies", len(policies))

	for _, policy := range policies {
		policyName := policy.Name
		if policyName == "" {
			policyName = "unknown"
		}
		policyType := policy.Type
		if policyType == "" {
			policyType = "unknown"
		}

		result.Details = append(result.Details, models.PolicyDetail{
			Policy: policyName,
			Type:   policyType,
			Status: "validated",
		})
	}

	return result
}
