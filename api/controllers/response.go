package controllers

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Detail string      `json:"detail,omitempty" example:"错误详情"`
	Data   interface{} `json:"data,omitempty"`
}

// SuccessResponse 构建成功响应
func SuccessResponse(msg string, data interface{}) APIResponse {
	return APIResponse{
		Status: 0,
		Msg:    msg,
		Data:   data,
	}
}

// ErrorResponse 构建错误响应，err不为nil时作为详情返回
func ErrorResponse(status int, msg string, err error) APIResponse {
	response := APIResponse{
		Status: status,
		Msg:    msg,
	}
	if err != nil {
		response.Detail = err.Error()
	}
	return response
}
