/*
 * @module api/controllers/policy_controller
 * @description 治理策略控制器，对数据集执行治理策略校验
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/governance_validation.md
 * @stateFlow 接收策略列表 -> 构建数据集URN -> 校验 -> 返回结果
 * @dependencies github.com/go-chi/render, service/soda
 * @refs api/routes.go
 */

package controllers

import (
	"net/http"

	"github.com/go-chi/render"

	"soda-datahub-connector/service"
	"soda-datahub-connector/service/models"
)

// PolicyController 治理策略控制器
type PolicyController struct{}

// NewPolicyController 创建治理策略控制器实例
func NewPolicyController() *PolicyController {
	return &PolicyController{}
}

// PolicyValidationRequest 策略校验请求
type PolicyValidationRequest struct {
	DatasetURN string                    `json:"dataset_urn"`
	Policies   []models.GovernancePolicy `json:"policies"`
	ScanResult *models.ScanResult        `json:"scan_result,omitempty"`
}

// ValidatePolicies 校验数据集的治理策略
// @Summary 校验治理策略
// @Description 对指定数据集的治理策略做校验记账
// @Tags 治理
// @Accept json
// @Produce json
// @Param request body PolicyValidationRequest true "策略校验请求"
// @Success 200 {object} APIResponse{data=models.PolicyValidationResult}
// @Failure 400 {object} APIResponse
// @Router /policies/validate [post]
func (c *PolicyController) ValidatePolicies(w http.ResponseWriter, r *http.Request) {
	var req PolicyValidationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}

	if req.DatasetURN == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "dataset_urn不能为空", nil))
		return
	}

	result := service.GlobalHandler.Validator().ValidatePolicies(req.DatasetURN, req.Policies, req.ScanResult)
	render.JSON(w, r, SuccessResponse("策略校验完成", result))
}
