package client

import (
	"net/http"
	"sync"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/auth"
)

// Factory 按用户构建并缓存上游客户端
// token 变化时重建客户端,未初始化的会话返回 nil
type Factory struct {
	mu      sync.Mutex
	opts    Options
	clients map[string]*Client
}

// NewFactory 创建客户端工厂
func NewFactory(opts Options) *Factory {
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Factory{
		opts:    opts,
		clients: make(map[string]*Client),
	}
}

// For 返回绑定该身份 token 的客户端
// identity 为 nil 或没有 token 时返回 nil,调用方应视为"尚不可用"
func (f *Factory) For(identity *auth.Identity) *Client {
	if identity == nil || identity.Token == "" {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := identity.OwnerKey()
	if cl, ok := f.clients[key]; ok && cl.token == identity.Token {
		return cl
	}

	cl := &Client{
		baseURL:  f.opts.BaseURL,
		paths:    f.opts.Paths,
		token:    identity.Token,
		subject:  identity.Subject,
		userID:   identity.Email,
		http:     f.opts.HTTPClient,
		reporter: f.opts.Reporter,
	}
	f.clients[key] = cl
	return cl
}

// Probe 返回不带 token 的探测客户端,仅用于健康检查
// 探测失败不会生成用户告警
func (f *Factory) Probe() *Client {
	return &Client{
		baseURL:  f.opts.BaseURL,
		paths:    f.opts.Paths,
		http:     f.opts.HTTPClient,
		reporter: nopReporter{},
	}
}

// Forget 丢弃用户的客户端
func (f *Factory) Forget(identity *auth.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clients, identity.OwnerKey())
}

// Len 返回缓存的客户端数
func (f *Factory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}
