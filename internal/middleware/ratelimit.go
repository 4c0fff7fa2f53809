// 包 middleware：HTTP 入口中间件（限流与上传体积限制）
package middleware

import (
	"math"
	"net/http"
	"sync"
	"time"

	"geotruth/internal/logger"
)

// 文档注释：令牌桶限流（每秒）
// 背景：轨迹上传与核验在峰值时对入口限速，避免数据库与远端缓存过载。
// 约束：简化实现，每秒整体重置令牌，不做排队；超限直接返回 429。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	mu       sync.Mutex
	now      func() time.Time
}

// NewTokenBucket 每秒容量取 qps 向上取整，至少为 1
func NewTokenBucket(qps float64) *TokenBucket {
	c := int(math.Ceil(qps))
	if c < 1 {
		c = 1
	}
	return &TokenBucket{capacity: c, tokens: c, lastSec: time.Now().Unix(), now: time.Now}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := tb.now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Options 入口中间件参数
type Options struct {
	RateLimitEnabled bool
	RateLimitQPS     float64
	MaxBodyBytes     int64
}

// 文档注释：按配置包装入口处理器
// 约束：MaxBodyBytes 为正时限制请求体大小，超限由读取方得到错误。
func Wrap(next http.Handler, opt Options) http.Handler {
	h := next
	if opt.MaxBodyBytes > 0 {
		inner := h
		h = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, opt.MaxBodyBytes)
			inner.ServeHTTP(w, r)
		})
	}
	if !opt.RateLimitEnabled {
		return h
	}
	tb := NewTokenBucket(opt.RateLimitQPS)
	logger.L().Info("rate_limit_enabled", "qps", tb.capacity)
	limited := h
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !tb.Allow() {
			logger.L().Debug("rate_limited", "path", r.URL.Path, "ip", r.RemoteAddr)
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		limited.ServeHTTP(w, r)
	})
}
