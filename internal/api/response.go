package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应格式
// @Description 统一响应格式,包含状态码、消息和数据
type Response struct {
	Code    int         `json:"code" example:"0"`          // 状态码: 0 表示成功,非 0 表示失败
	Message string      `json:"message" example:"success"` // 响应消息
	Data    interface{} `json:"data"`                      // 响应数据
}

// ErrorResponse 错误响应格式
// @Description 错误响应格式,包含错误码、错误消息和错误详情
type ErrorResponse struct {
	Code    int    `json:"code" example:"400"`                         // 错误码
	Message string `json:"message" example:"invalid request"`          // 错误消息
	Detail  string `json:"detail,omitempty" example:"view not found"` // 错误详情(可选)
}

// PaginatedResponse 分页响应
// @Description 分页响应格式,包含数据列表和分页信息
type PaginatedResponse struct {
	Code       int            `json:"code" example:"0"`
	Message    string         `json:"message" example:"success"`
	Data       interface{}    `json:"data"`       // 数据列表
	Pagination PaginationInfo `json:"pagination"` // 分页信息
}

// PaginationInfo 分页信息
// @Description 分页信息,任务引擎按偏移量分页
type PaginationInfo struct {
	FirstResult int   `json:"first_result" example:"0"` // 起始偏移
	MaxResults  int   `json:"max_results" example:"20"` // 每页数量
	Total       int64 `json:"total" example:"100"`      // 总记录数
	HasMore     bool  `json:"has_more" example:"true"`  // 是否还有下一页
}

// NewPaginationInfo 根据偏移和总数生成分页信息
func NewPaginationInfo(firstResult, maxResults int, returned int, total int64) PaginationInfo {
	return PaginationInfo{
		FirstResult: firstResult,
		MaxResults:  maxResults,
		Total:       total,
		HasMore:     int64(firstResult+returned) < total,
	}
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string, detail string) {
	statusCode := http.StatusInternalServerError
	if code >= 400 && code < 600 {
		statusCode = code
	}

	c.JSON(statusCode, ErrorResponse{
		Code:    code,
		Message: message,
		Detail:  detail,
	})
}

// Paginated 分页响应
func Paginated(c *gin.Context, data interface{}, pagination PaginationInfo) {
	c.JSON(http.StatusOK, PaginatedResponse{
		Code:       0,
		Message:    "success",
		Data:       data,
		Pagination: pagination,
	})
}

