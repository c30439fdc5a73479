// Package client 提供绑定用户 bearer token 的上游 HTTP 客户端
//
// 所有失败的上游响应都会生成 FailureReport 交给 Reporter,
// 然后原样返回给调用方。取消不会被报告。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/metrics"
)

// maxErrorBody 错误响应体最大读取长度
const maxErrorBody = 64 << 10

// Paths 网关下各服务的路径前缀
type Paths struct {
	Engine  string
	UI      string
	RefData string
	OpData  string
}

// Options 客户端选项
type Options struct {
	BaseURL    string
	Paths      Paths
	Timeout    time.Duration
	Reporter   Reporter
	HTTPClient *http.Client
}

// Client 绑定单个用户 token 的上游客户端
type Client struct {
	baseURL  string
	paths    Paths
	token    string
	subject  string
	userID   string
	http     *http.Client
	reporter Reporter
}

// request 单次上游请求
type request struct {
	method   string
	endpoint string // 指标标签,不含 ID
	path     string
	query    url.Values
	body     interface{}
}

// Token 返回绑定的 token
func (c *Client) Token() string {
	return c.token
}

// UserID 返回绑定用户的邮箱
func (c *Client) UserID() string {
	return c.userID
}

// Paths 返回服务路径前缀
func (c *Client) Paths() Paths {
	return c.paths
}

// do 发送请求并将 2xx 响应解析到 out
// out 为 *[]byte 时保存原始响应体,不做 JSON 解析
func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	start := time.Now()

	// 1. 构造请求
	target := strings.TrimRight(c.baseURL, "/") + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if requestID := RequestIDFrom(ctx); requestID != "" {
		httpReq.Header.Set("X-Request-ID", requestID)
	}

	// 2. 发送
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
		}
		metrics.RecordUpstreamRequest(req.method, req.endpoint, 0, time.Since(start))
		return c.fail(ctx, &APIError{
			Kind:    KindTransport,
			Method:  req.method,
			Path:    req.path,
			Message: err.Error(),
			Payload: err.Error(),
			Err:     err,
		})
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(req.method, req.endpoint, resp.StatusCode, time.Since(start))

	// 3. 非 2xx
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
		}
		return c.fail(ctx, &APIError{
			Kind:    KindStatus,
			Method:  req.method,
			Path:    req.path,
			Status:  resp.StatusCode,
			Message: errorMessage(resp.StatusCode, payload),
			Payload: string(payload),
		})
	}

	// 4. 解析响应
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
			}
			return c.fail(ctx, &APIError{
				Kind:    KindTransport,
				Method:  req.method,
				Path:    req.path,
				Status:  resp.StatusCode,
				Message: "failed to read response: " + err.Error(),
				Err:     err,
			})
		}
		*raw = data
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		return c.fail(ctx, &APIError{
			Kind:    KindDecode,
			Method:  req.method,
			Path:    req.path,
			Status:  resp.StatusCode,
			Message: "failed to decode response: " + err.Error(),
			Err:     err,
		})
	}
	return nil
}

// fail 报告失败并原样返回
func (c *Client) fail(ctx context.Context, apiErr *APIError) error {
	c.reporter.Report(FailureReport{
		Kind:        apiErr.Kind,
		Token:       c.token,
		UserID:      c.userID,
		Status:      apiErr.Status,
		Message:     apiErr.Message,
		Payload:     apiErr.Payload,
		Method:      apiErr.Method,
		RequestPath: apiErr.Path,
		RoutePath:   RouteFrom(ctx),
		RequestID:   RequestIDFrom(ctx),
		OccurredAt:  time.Now(),
	})
	return apiErr
}

// ReportDecodeFailure 报告本地解析失败,例如结构化变量
func (c *Client) ReportDecodeFailure(ctx context.Context, path string, message string) {
	c.reporter.Report(FailureReport{
		Kind:        KindDecode,
		Token:       c.token,
		UserID:      c.userID,
		Message:     message,
		Method:      http.MethodGet,
		RequestPath: path,
		RoutePath:   RouteFrom(ctx),
		RequestID:   RequestIDFrom(ctx),
		OccurredAt:  time.Now(),
	})
}

// errorMessage 从错误响应中提取消息,优先使用 JSON 中的 message 字段
func errorMessage(status int, payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return fmt.Sprintf("Request failed with status code %d", status)
}
