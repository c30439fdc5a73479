package utils

import "strings"

// taskSortFields 流程引擎任务查询支持的排序字段
var taskSortFields = map[string]bool{
	"instanceId":                 true,
	"caseInstanceId":             true,
	"dueDate":                    true,
	"followUpDate":               true,
	"executionId":                true,
	"caseExecutionId":            true,
	"assignee":                   true,
	"created":                    true,
	"description":                true,
	"id":                         true,
	"name":                       true,
	"nameCaseInsensitive":        true,
	"priority":                   true,
	"processVariable":            false, // 需要额外参数,不支持
	"executionVariable":          false,
	"taskVariable":               false,
	"caseExecutionVariable":      false,
	"caseInstanceVariable":       false,
	"tenantId":                   true,
	"lastUpdated":                true,
	"processDefinitionKey":       false,
	"processInstanceBusinessKey": false,
}

// SortSpec 排序条件
type SortSpec struct {
	Field string
	Order string // asc, desc
}

// String 返回 "<order>-<field>" 形式
func (s SortSpec) String() string {
	return s.Order + "-" + s.Field
}

// ParseSortBy 解析 "<order>-<field>" 形式的排序,例如 asc-dueDate
func ParseSortBy(sortBy string) (SortSpec, error) {
	order, field, ok := strings.Cut(strings.TrimSpace(sortBy), "-")
	if !ok {
		return SortSpec{}, ErrInvalidSort
	}

	order = strings.ToLower(order)
	if order != "asc" && order != "desc" {
		return SortSpec{}, ErrInvalidSort
	}
	if !taskSortFields[field] {
		return SortSpec{}, ErrInvalidSort
	}

	return SortSpec{Field: field, Order: order}, nil
}
