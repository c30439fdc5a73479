package api

import (
	"errors"
	"net/http"

	"github.com/UKHomeOffice/cop-ui/internal/client"
	"github.com/UKHomeOffice/cop-ui/internal/service"
	"github.com/UKHomeOffice/cop-ui/internal/utils"
	"github.com/gin-gonic/gin"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware 错误处理中间件
// 处理器通过 c.Error 登记的错误在此统一转换为错误响应
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
			return
		}
		RespondError(c, err)
	}
}

// WrapError 包装错误
func WrapError(err error, code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
	}
}

// StatusOf 将领域错误映射为 HTTP 状态码和消息
func StatusOf(err error) (int, string) {
	var validationErr *utils.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Message
	case errors.Is(err, service.ErrViewNotFound):
		return http.StatusNotFound, "view not found"
	case errors.Is(err, service.ErrSubmissionInProgress):
		return http.StatusConflict, "submission already in progress"
	case errors.Is(err, client.ErrUnavailable):
		return http.StatusUnauthorized, "session not ready"
	case client.IsCanceled(err):
		return http.StatusRequestTimeout, "request canceled"
	case client.KindOf(err) != "":
		return http.StatusBadGateway, "upstream request failed"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondError 按错误类型写入错误响应
func RespondError(c *gin.Context, err error) {
	code, message := StatusOf(err)
	Error(c, code, message, err.Error())
}
