// Package types 提供HTTP响应类型定义
package types

import "time"

// ErrorResponse 统一错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Code      string      `json:"code"`                // 错误码
	Message   string      `json:"message"`             // 错误消息
	Details   interface{} `json:"details,omitempty"`   // 详细信息
	Timestamp string      `json:"timestamp,omitempty"` // 时间戳
}

// 错误码常量
const (
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrNotFound        = "NOT_FOUND"
	ErrInternal        = "INTERNAL"
)

// NewErrorResponse 创建错误响应
func NewErrorResponse(code, message string, details interface{}) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// DataResponse 统一成功响应格式
type DataResponse struct {
	Data interface{} `json:"data"`
}

// NewDataResponse 创建成功响应
func NewDataResponse(data interface{}) *DataResponse {
	return &DataResponse{Data: data}
}
