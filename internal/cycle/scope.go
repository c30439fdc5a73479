// Package cycle 提供可取消的获取周期
//
// 每个视图持有一个 Scope。新周期开始时取消上一个仍在进行的周期,
// 结果只有在其令牌仍为当前令牌时才会被应用,迟到的结果被丢弃。
package cycle

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded 周期已被新的周期取代
var ErrSuperseded = errors.New("cycle superseded")

// ErrClosed 作用域已关闭
var ErrClosed = errors.New("scope closed")

// Token 标识一个周期
type Token uint64

// Scope 单个逻辑视图的取消作用域
type Scope struct {
	mu     sync.Mutex
	gen    Token
	cancel context.CancelFunc
	closed bool
}

// New 创建作用域
func New() *Scope {
	return &Scope{}
}

// Begin 开始新周期
// 取消上一个周期,返回新周期的上下文和令牌。作用域已关闭时返回已取消的上下文。
func (s *Scope) Begin(parent context.Context) (context.Context, Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++

	ctx, cancel := context.WithCancel(parent)
	if s.closed {
		cancel()
		return ctx, s.gen
	}
	s.cancel = cancel
	return ctx, s.gen
}

// Current 判断令牌是否仍为当前周期
func (s *Scope) Current(token Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && token == s.gen
}

// Apply 仅当令牌仍为当前周期时执行 fn
// fn 在作用域锁内执行,与 Begin/Close 互斥。
func (s *Scope) Apply(token Token, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if token != s.gen {
		return ErrSuperseded
	}
	fn()
	return nil
}

// Finish 结束周期并释放其上下文,令牌不是当前周期时无操作
func (s *Scope) Finish(token Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == s.gen && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Close 关闭作用域并取消进行中的周期
func (s *Scope) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Closed 判断作用域是否已关闭
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
