package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterIdleTTL 限流器闲置回收时间
const limiterIdleTTL = 10 * time.Minute

// clientLimiter 单个客户端的限流器
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiters 按客户端 IP 划分的限流器集合
type rateLimiters struct {
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	limiters map[string]*clientLimiter
	lastGC   time.Time
}

// allow 判断客户端本次请求是否放行,顺带回收闲置限流器
func (r *rateLimiters) allow(key string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Sub(r.lastGC) > limiterIdleTTL {
		for k, cl := range r.limiters {
			if now.Sub(cl.lastSeen) > limiterIdleTTL {
				delete(r.limiters, k)
			}
		}
		r.lastGC = now
	}

	cl, ok := r.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(r.rps, r.burst)}
		r.limiters[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// RateLimitMiddleware 限流中间件,按客户端 IP 独立计数
// rps <= 0 时不限流
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	if burst <= 0 {
		burst = 1
	}

	limiters := &rateLimiters{
		rps:      rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*clientLimiter),
		lastGC:   time.Now(),
	}

	return func(c *gin.Context) {
		if !limiters.allow(c.ClientIP(), time.Now()) {
			c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Code:    http.StatusTooManyRequests,
				Message: "too many requests",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
