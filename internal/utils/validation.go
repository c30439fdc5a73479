package utils

import (
	"regexp"
	"strings"
	"unicode"
)

// idPattern 任务、视图 ID 允许的字符
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateTaskID 验证任务 ID 格式
func ValidateTaskID(id string) error {
	// 1. 检查是否为空
	if id == "" {
		return ErrEmptyID
	}

	// 2. 检查长度（最大 64 字符）
	if len(id) > 64 {
		return ErrIDTooLong
	}

	// 3. 检查格式（只允许字母、数字、连字符、下划线）
	if !idPattern.MatchString(id) {
		return ErrInvalidIDFormat
	}

	return nil
}

// ValidateViewID 验证视图 ID 格式
func ValidateViewID(id string) error {
	return ValidateTaskID(id) // 使用相同的验证规则
}

// NormalizeSearch 清理搜索文本
// 去除首尾空白和控制字符,超长返回错误,空串合法
// LIKE 通配符原样保留,宁可多匹配也不丢失名称中含 _ 的任务
func NormalizeSearch(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) > 255 {
		return "", ErrStringTooLong
	}

	var result strings.Builder
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			continue
		}
		result.WriteRune(r)
	}
	return result.String(), nil
}

// ValidateSubmitPath 验证自定义提交路径
// 只允许网关内的绝对路径,不允许协议、主机或上跳
func ValidateSubmitPath(path string) error {
	if path == "" {
		return nil
	}
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return ErrInvalidPath
	}
	if strings.Contains(path, "..") || strings.Contains(path, "://") {
		return ErrInvalidPath
	}
	for _, r := range path {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return ErrInvalidPath
		}
	}
	return nil
}

// 错误定义
var (
	ErrEmptyID         = &ValidationError{Code: "EMPTY_ID", Message: "id cannot be empty"}
	ErrInvalidIDFormat = &ValidationError{Code: "INVALID_ID_FORMAT", Message: "id contains invalid characters"}
	ErrIDTooLong       = &ValidationError{Code: "ID_TOO_LONG", Message: "id exceeds maximum length"}
	ErrStringTooLong   = &ValidationError{Code: "STRING_TOO_LONG", Message: "string exceeds maximum length"}
	ErrInvalidPath     = &ValidationError{Code: "INVALID_PATH", Message: "path must be an absolute gateway path"}
	ErrInvalidSort     = &ValidationError{Code: "INVALID_SORT", Message: "sort must be <asc|desc>-<field> with a supported field"}
)

// ValidationError 验证错误
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
