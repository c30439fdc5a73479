package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 上游失败类型
type Kind string

const (
	// KindTransport 网络或传输失败
	KindTransport Kind = "transport"
	// KindStatus 上游返回非 2xx 状态
	KindStatus Kind = "status"
	// KindDecode 响应或结构化变量无法解析
	KindDecode Kind = "decode"
	// KindCanceled 请求被取消,不属于错误
	KindCanceled Kind = "canceled"
)

// ErrCanceled 请求所在周期已被取消
var ErrCanceled = errors.New("request canceled")

// ErrUnavailable 没有可用的认证客户端
var ErrUnavailable = errors.New("authenticated client unavailable")

// APIError 上游请求失败
type APIError struct {
	Kind    Kind
	Method  string
	Path    string
	Status  int
	Message string
	Payload string // 上游响应体或传输错误信息
	Err     error
}

// Error 实现 error 接口
func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("upstream %s %s failed with status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("upstream %s %s failed (%s): %s", e.Method, e.Path, e.Kind, e.Message)
}

// Unwrap 返回底层错误
func (e *APIError) Unwrap() error {
	return e.Err
}

// KindOf 返回错误的失败类型,非上游错误返回空字符串
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrCanceled) {
		return KindCanceled
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsNotFound 判断是否为上游 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsCanceled 判断是否为取消
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}
