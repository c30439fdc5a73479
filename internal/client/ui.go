package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/UKHomeOffice/cop-ui/internal/model"
)

// SubmitPayload 表单提交请求体
// 默认提交路径使用 taskId,自定义路径使用 id
type SubmitPayload struct {
	Submission  json.RawMessage `json:"submission"`
	Form        *model.Form     `json:"form"`
	TaskID      string          `json:"taskId,omitempty"`
	ID          string          `json:"id,omitempty"`
	BusinessKey string          `json:"businessKey"`
}

// TaskPath 任务详情路径
func (c *Client) TaskPath(taskID string) string {
	return c.paths.UI + "/tasks/" + url.PathEscape(taskID)
}

// DefaultSubmitPath 默认的表单完成路径
func (c *Client) DefaultSubmitPath(taskID string) string {
	return c.TaskPath(taskID) + "/form/_complete"
}

// GetTaskBundle 获取任务详情
func (c *Client) GetTaskBundle(ctx context.Context, taskID string) (*model.TaskBundle, error) {
	var bundle model.TaskBundle
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "ui:/tasks/{id}",
		path:     c.TaskPath(taskID),
	}, &bundle)
	if err != nil {
		return nil, err
	}
	return &bundle, nil
}

// Submit 提交表单,响应体原样返回
// 非 JSON 响应体包装为 JSON 字符串,空响应体返回 nil
func (c *Client) Submit(ctx context.Context, path string, payload SubmitPayload) (json.RawMessage, error) {
	var body []byte
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "ui:submit",
		path:     path,
		body:     payload,
	}, &body)
	if err != nil {
		return nil, err
	}
	return rawResult(body), nil
}

// rawResult 将响应体转换为 JSON
func rawResult(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	wrapped, _ := json.Marshal(string(body))
	return wrapped
}
