package client

import "context"

type routeKey struct{}

type requestIDKey struct{}

// WithRoute 在上下文中记录发起请求的本服务路由,用于失败报告
func WithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

// RouteFrom 读取上下文中的路由
func RouteFrom(ctx context.Context) string {
	route, _ := ctx.Value(routeKey{}).(string)
	return route
}

// WithRequestID 在上下文中记录请求 ID,透传给上游
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFrom 读取上下文中的请求 ID
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
