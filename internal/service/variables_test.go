package service_test

import (
	"encoding/json"
	"testing"

	"github.com/UKHomeOffice/cop-ui/internal/model"
	"github.com/UKHomeOffice/cop-ui/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonVar 结构化变量,值为序列化后的 JSON 字符串
func jsonVar(encoded string) model.Variable {
	value, _ := json.Marshal(encoded)
	return model.Variable{Type: model.VariableTypeJSON, Value: value}
}

// plainVar 普通变量
func plainVar(typ string, raw string) model.Variable {
	return model.Variable{Type: typ, Value: json.RawMessage(raw)}
}

// TestDecodeVariables 测试按类型解析变量
func TestDecodeVariables(t *testing.T) {
	vars := map[string]model.Variable{
		"structured": jsonVar(`{"a":1,"b":["x"]}`),
		"text":       plainVar("String", `"hello"`),
		"number":     plainVar("Integer", `42`),
		"flag":       plainVar("Boolean", `true`),
		"empty":      plainVar("Null", `null`),
	}

	decoded, errs := service.DecodeVariables("process", vars)
	require.Empty(t, errs)

	assert.Equal(t, map[string]interface{}{
		"a": json.Number("1"),
		"b": []interface{}{"x"},
	}, decoded["structured"])
	assert.Equal(t, "hello", decoded["text"])
	assert.Equal(t, json.Number("42"), decoded["number"])
	assert.Equal(t, true, decoded["flag"])
	assert.Nil(t, decoded["empty"])
	assert.Len(t, decoded, 5)
}

// TestDecodeVariables_StructuredValueAlreadyDecoded 测试结构化变量的值已经是对象
func TestDecodeVariables_StructuredValueAlreadyDecoded(t *testing.T) {
	vars := map[string]model.Variable{
		"obj": {Type: model.VariableTypeJSON, Value: json.RawMessage(`{"k":"v"}`)},
	}
	decoded, errs := service.DecodeVariables("task", vars)
	require.Empty(t, errs)
	assert.Equal(t, map[string]interface{}{"k": "v"}, decoded["obj"])
}

// TestDecodeVariables_FailSoft 测试解析失败时保留原值并记录错误
func TestDecodeVariables_FailSoft(t *testing.T) {
	vars := map[string]model.Variable{
		"broken": jsonVar(`{not json`),
		"ok":     plainVar("String", `"fine"`),
	}

	decoded, errs := service.DecodeVariables("process", vars)
	require.Len(t, errs, 1)
	assert.Equal(t, "process", errs[0].Scope)
	assert.Equal(t, "broken", errs[0].Key)
	assert.NotEmpty(t, errs[0].Message)

	assert.Equal(t, `{not json`, decoded["broken"])
	assert.Equal(t, "fine", decoded["ok"])
}

// TestDecodeVariables_DoesNotMutateInput 测试输入不被修改
func TestDecodeVariables_DoesNotMutateInput(t *testing.T) {
	original := jsonVar(`{"a":1}`)
	vars := map[string]model.Variable{"structured": original}

	_, _ = service.DecodeVariables("process", vars)
	assert.Equal(t, original, vars["structured"])
	assert.Len(t, vars, 1)
}

// TestDecodeVariables_Empty 测试空变量集
func TestDecodeVariables_Empty(t *testing.T) {
	decoded, errs := service.DecodeVariables("task", nil)
	assert.NotNil(t, decoded)
	assert.Empty(t, decoded)
	assert.Empty(t, errs)
}
