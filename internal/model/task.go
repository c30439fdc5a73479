package model

import (
	"encoding/json"
	"time"
)

// VariableTypeJSON 结构化变量的类型标记,值为序列化后的 JSON 字符串
const VariableTypeJSON = "Json"

// Variable 流程引擎中的带类型变量
type Variable struct {
	Type      string          `json:"type"`
	Value     json.RawMessage `json:"value"`
	ValueInfo json.RawMessage `json:"valueInfo,omitempty"`
}

// IsStructured 判断是否为需要二次解析的结构化变量
func (v Variable) IsStructured() bool {
	return v.Type == VariableTypeJSON
}

// Task 流程引擎任务
// Category 和 BusinessKey 不由引擎返回,在列表查询后补充
type Task struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Description         string              `json:"description,omitempty"`
	Due                 *EngineTime         `json:"due,omitempty"`
	Created             *EngineTime         `json:"created,omitempty"`
	Priority            int                 `json:"priority"`
	Assignee            *string             `json:"assignee"`
	Owner               *string             `json:"owner,omitempty"`
	ProcessDefinitionID string              `json:"processDefinitionId"`
	ProcessInstanceID   string              `json:"processInstanceId"`
	TaskDefinitionKey   string              `json:"taskDefinitionKey,omitempty"`
	FormKey             string              `json:"formKey,omitempty"`
	Variables           map[string]Variable `json:"variables,omitempty"`
	Category            string              `json:"category,omitempty"`
	BusinessKey         string              `json:"businessKey,omitempty"`
}

// AssigneeValue 返回处理人,未分配时返回空字符串
func (t *Task) AssigneeValue() string {
	if t == nil || t.Assignee == nil {
		return ""
	}
	return *t.Assignee
}

// ProcessDefinition 流程定义,仅按 ID 查询分类
type ProcessDefinition struct {
	ID       string `json:"id"`
	Key      string `json:"key,omitempty"`
	Name     string `json:"name,omitempty"`
	Category string `json:"category"`
	Version  int    `json:"version,omitempty"`
}

// ProcessInstance 流程实例,仅按 ID 查询业务键
type ProcessInstance struct {
	ID           string `json:"id"`
	BusinessKey  string `json:"businessKey"`
	DefinitionID string `json:"definitionId,omitempty"`
	Ended        bool   `json:"ended,omitempty"`
	Suspended    bool   `json:"suspended,omitempty"`
}

// Form 表单描述,Schema 对本服务不透明
type Form struct {
	ID     string          `json:"id,omitempty"`
	Name   string          `json:"name"`
	Title  string          `json:"title,omitempty"`
	Schema json.RawMessage `json:"schema,omitempty"`
}

// TaskBundle GET /ui/tasks/{id} 的响应
type TaskBundle struct {
	Variables         map[string]Variable `json:"variables"`
	Form              *Form               `json:"form"`
	ProcessInstance   ProcessInstance     `json:"processInstance"`
	ProcessDefinition ProcessDefinition   `json:"processDefinition"`
	Task              Task                `json:"task"`
}

// CountResult POST /task/count 的响应
type CountResult struct {
	Count int64 `json:"count"`
}

// engineTimeLayout 流程引擎的时间格式,例如 2020-05-01T10:00:00.000+0000
const engineTimeLayout = "2006-01-02T15:04:05.000-0700"

// EngineTime 兼容流程引擎时间格式的时间类型
type EngineTime struct {
	time.Time
}

// NewEngineTime 创建引擎时间
func NewEngineTime(t time.Time) *EngineTime {
	return &EngineTime{Time: t}
}

// MarshalJSON 以引擎格式输出
func (t EngineTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(engineTimeLayout))
}

// UnmarshalJSON 同时接受引擎格式和 RFC3339
func (t *EngineTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.Parse(engineTimeLayout, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
	}
	t.Time = parsed
	return nil
}
