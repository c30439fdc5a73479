package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/UKHomeOffice/cop-ui/internal/model"
)

// DecodeError 结构化变量解析失败
type DecodeError struct {
	Scope   string `json:"scope"` // task, process
	Key     string `json:"key"`
	Message string `json:"message"`
}

// DecodeVariables 解析带类型的变量
// Json 类型的值是序列化后的 JSON 字符串,需要再解析一次;其他类型直接取值。
// 解析失败的变量保留原始字符串并记录在返回的错误列表中。输入不会被修改。
func DecodeVariables(scope string, vars map[string]model.Variable) (map[string]interface{}, []DecodeError) {
	decoded := make(map[string]interface{}, len(vars))
	var errs []DecodeError

	for key, variable := range vars {
		value, err := decodeVariable(variable)
		if err != nil {
			errs = append(errs, DecodeError{Scope: scope, Key: key, Message: err.Error()})
		}
		decoded[key] = value
	}

	sort.Slice(errs, func(i, j int) bool { return errs[i].Key < errs[j].Key })
	return decoded, errs
}

// decodeVariable 解析单个变量,失败时返回可用的回退值
func decodeVariable(variable model.Variable) (interface{}, error) {
	raw, err := decodeJSON(variable.Value)
	if err != nil {
		return string(variable.Value), fmt.Errorf("invalid variable value: %w", err)
	}
	if !variable.IsStructured() {
		return raw, nil
	}

	encoded, ok := raw.(string)
	if !ok {
		// 已经是结构化数据
		return raw, nil
	}
	structured, err := decodeJSON([]byte(encoded))
	if err != nil {
		return encoded, fmt.Errorf("invalid Json variable: %w", err)
	}
	return structured, nil
}

// decodeJSON 解析 JSON,数字保持为 json.Number
func decodeJSON(data []byte) (interface{}, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return value, nil
}
